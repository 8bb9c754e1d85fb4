package repository

import (
	"context"
	"errors"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the balance store. Every balance change goes through
// ApplyDelta, which must run inside the caller's transaction.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	return storageErr("create wallet", r.db.WithContext(ctx).Create(w).Error)
}

func (r *WalletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	return r.found(&w, err, "get wallet")
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	return r.found(&w, err, "get wallet by user")
}

// getForUpdate reads the wallet row holding a row lock where the dialect
// supports one. The version check in ApplyDelta covers dialects that do not.
func (r *WalletRepository) getForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&w).Error
	return r.found(&w, err, "lock wallet")
}

func (r *WalletRepository) found(w *models.Wallet, err error, op string) (*models.Wallet, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, storageErr(op, err)
	}
	return w, nil
}

// ApplyDelta adds delta to one balance of the wallet. A negative delta that
// would take the balance below zero fails with *InsufficientFundsError and
// writes nothing. A write that loses a race with another writer fails with
// ErrConcurrencyConflict.
func (r *WalletRepository) ApplyDelta(ctx context.Context, walletID string, bt domain.BalanceType, delta decimal.Decimal) (*models.Wallet, error) {
	col, err := bt.Column()
	if err != nil {
		return nil, err
	}
	w, err := r.getForUpdate(ctx, walletID)
	if err != nil {
		return nil, err
	}
	current := w.Balance(bt)
	next := current.Add(delta)
	if delta.IsNegative() && next.IsNegative() {
		return nil, &InsufficientFundsError{Current: current, Required: delta.Neg()}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]interface{}{
			col:       next,
			"version": w.Version + 1,
		})
	if res.Error != nil {
		return nil, storageErr("apply delta", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrencyConflict
	}
	w.SetBalance(bt, next)
	w.Version++
	return w, nil
}

func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]models.Wallet, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Wallet{}).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count wallets", err)
	}
	var list []models.Wallet
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, storageErr("list wallets", err)
}
