package repository

import (
	"context"
	"time"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository is the append-only store of wallet transactions. It has no
// update or delete methods.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// Append inserts a new entry. ID and CreatedAt are filled in when empty.
func (r *LedgerRepository) Append(ctx context.Context, t *models.WalletTransaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return storageErr("append ledger entry", r.db.WithContext(ctx).Create(t).Error)
}

// ListByWallet returns entries newest first. limit <= 0 returns all.
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]models.WalletTransaction, error) {
	q := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []models.WalletTransaction
	if err := q.Find(&list).Error; err != nil {
		return nil, storageErr("list ledger", err)
	}
	return list, nil
}

// ListByReference returns entries pointing at a business event, oldest first.
func (r *LedgerRepository) ListByReference(ctx context.Context, refType domain.ReferenceType, refID string) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, storageErr("list ledger by reference", err)
	}
	return list, nil
}

// Replay sums every entry of the wallet per balance type. Amounts are summed in
// decimal rather than SQL so the result is exact on every dialect.
func (r *LedgerRepository) Replay(ctx context.Context, walletID string) (map[domain.BalanceType]decimal.Decimal, error) {
	sums := make(map[domain.BalanceType]decimal.Decimal, len(domain.BalanceTypes))
	for _, bt := range domain.BalanceTypes {
		sums[bt] = decimal.Zero
	}
	var batch []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Select("id", "balance_type", "amount").
		Where("wallet_id = ?", walletID).
		FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
			for _, t := range batch {
				sums[t.BalanceType] = sums[t.BalanceType].Add(t.Amount)
			}
			return nil
		}).Error
	if err != nil {
		return nil, storageErr("replay ledger", err)
	}
	return sums, nil
}

func (r *LedgerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Count(&n).Error
	return n, storageErr("count ledger", err)
}
