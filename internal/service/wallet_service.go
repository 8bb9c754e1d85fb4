package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"circuitrack/internal/domain"
	"circuitrack/internal/metrics"
	"circuitrack/internal/models"
	"circuitrack/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService is the only path by which balances change. Each mutation
// appends a ledger entry and applies the same delta to the wallet inside one
// database transaction.
type WalletService struct {
	db         *gorm.DB
	wallets    *repository.WalletRepository
	ledger     *repository.LedgerRepository
	maxRetries int
}

func NewWalletService(db *gorm.DB, wallets *repository.WalletRepository, ledger *repository.LedgerRepository, maxRetries int) *WalletService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &WalletService{db: db, wallets: wallets, ledger: ledger, maxRetries: maxRetries}
}

type WalletResult struct {
	Wallet      *models.Wallet            `json:"wallet"`
	Transaction *models.WalletTransaction `json:"transaction"`
}

// Reconciliation compares the cached balances with a replay of the ledger.
type Reconciliation struct {
	WalletID   string                                 `json:"wallet_id"`
	Balances   map[domain.BalanceType]decimal.Decimal `json:"balances"`
	Ledger     map[domain.BalanceType]decimal.Decimal `json:"ledger"`
	Consistent bool                                   `json:"consistent"`
}

// posting is one ledger entry. amount is the signed delta applied to balance.
type posting struct {
	walletID string
	txType   domain.TransactionType
	balance  domain.BalanceType
	amount   decimal.Decimal
	refID    string
	refType  domain.ReferenceType
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// Debit takes amount from the main balance. It fails with
// repository.ErrInsufficientFunds, leaving nothing written, when the balance is short.
func (s *WalletService) Debit(ctx context.Context, walletID string, amount decimal.Decimal, refID string, refType domain.ReferenceType) (*WalletResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.commit(ctx, posting{
		walletID: walletID,
		txType:   domain.TxDebit,
		balance:  domain.BalanceMain,
		amount:   amount.Neg(),
		refID:    refID,
		refType:  refType,
	})
}

// Credit adds amount to the main balance.
func (s *WalletService) Credit(ctx context.Context, walletID string, amount decimal.Decimal, refID string, refType domain.ReferenceType) (*WalletResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.commit(ctx, posting{
		walletID: walletID,
		txType:   domain.TxCredit,
		balance:  domain.BalanceMain,
		amount:   amount,
		refID:    refID,
		refType:  refType,
	})
}

// ApplyCashback adds amount to the cashback balance.
func (s *WalletService) ApplyCashback(ctx context.Context, walletID string, amount decimal.Decimal, refID string) (*WalletResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.commit(ctx, cashbackPosting(walletID, amount, refID))
}

// Refund returns amount to the main balance.
func (s *WalletService) Refund(ctx context.Context, walletID string, amount decimal.Decimal, refID string) (*WalletResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.commit(ctx, posting{
		walletID: walletID,
		txType:   domain.TxRefund,
		balance:  domain.BalanceMain,
		amount:   amount,
		refID:    refID,
		refType:  domain.RefRefund,
	})
}

// ApplyPenalty records amount as owed on the penalty balance.
func (s *WalletService) ApplyPenalty(ctx context.Context, walletID string, amount decimal.Decimal, refID string) (*WalletResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.commit(ctx, posting{
		walletID: walletID,
		txType:   domain.TxPenalty,
		balance:  domain.BalancePenalty,
		amount:   amount,
		refID:    refID,
		refType:  domain.RefPenalty,
	})
}

func cashbackPosting(walletID string, amount decimal.Decimal, refID string) posting {
	return posting{
		walletID: walletID,
		txType:   domain.TxCashback,
		balance:  domain.BalanceCashback,
		amount:   amount,
		refID:    refID,
		refType:  domain.RefCashback,
	}
}

func (s *WalletService) GetByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	return s.wallets.GetByUserID(ctx, userID)
}

func (s *WalletService) GetByID(ctx context.Context, walletID string) (*models.Wallet, error) {
	return s.wallets.GetByID(ctx, walletID)
}

// ListTransactions returns the wallet's ledger newest first.
func (s *WalletService) ListTransactions(ctx context.Context, walletID string, limit int) ([]models.WalletTransaction, error) {
	if _, err := s.wallets.GetByID(ctx, walletID); err != nil {
		return nil, err
	}
	return s.ledger.ListByWallet(ctx, walletID, limit)
}

// Reconcile replays the ledger and reports whether it matches the cached balances.
func (s *WalletService) Reconcile(ctx context.Context, walletID string) (*Reconciliation, error) {
	rec := &Reconciliation{WalletID: walletID, Consistent: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.wallets.WithTx(tx).GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		sums, err := s.ledger.WithTx(tx).Replay(ctx, walletID)
		if err != nil {
			return err
		}
		rec.Ledger = sums
		rec.Balances = make(map[domain.BalanceType]decimal.Decimal, len(domain.BalanceTypes))
		for _, bt := range domain.BalanceTypes {
			rec.Balances[bt] = w.Balance(bt)
			if !w.Balance(bt).Equal(sums[bt]) {
				rec.Consistent = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Consistent {
		log.Printf("[wallet] reconcile mismatch wallet=%s balances=%v ledger=%v", walletID, rec.Balances, rec.Ledger)
	}
	return rec, nil
}

// ProvisionTx creates the wallet for userID inside tx. A positive opening
// balance is credited through the ledger so replays stay exact.
func (s *WalletService) ProvisionTx(ctx context.Context, tx *gorm.DB, userID uint, opening decimal.Decimal) (*models.Wallet, error) {
	if !opening.IsZero() {
		if err := validateAmount(opening); err != nil {
			return nil, err
		}
	}
	w := &models.Wallet{UserID: userID}
	if err := s.wallets.WithTx(tx).Create(ctx, w); err != nil {
		return nil, err
	}
	if opening.IsZero() {
		return w, nil
	}
	res, err := s.postTx(ctx, tx, posting{
		walletID: w.ID,
		txType:   domain.TxCredit,
		balance:  domain.BalanceMain,
		amount:   opening,
		refType:  domain.RefTopup,
	})
	if err != nil {
		return nil, err
	}
	return res.Wallet, nil
}

func (s *WalletService) commit(ctx context.Context, p posting) (*WalletResult, error) {
	var res *WalletResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		r, err := s.postTx(ctx, tx, p)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	metrics.RecordWalletOperation(string(p.txType), resultLabel(err))
	if err != nil {
		var se *repository.StorageError
		if errors.As(err, &se) {
			log.Printf("[wallet] %s failed wallet=%s amount=%s: %v", p.txType, p.walletID, p.amount, err)
		}
		return nil, err
	}
	return res, nil
}

// postTx applies the delta and appends the matching ledger entry using tx.
func (s *WalletService) postTx(ctx context.Context, tx *gorm.DB, p posting) (*WalletResult, error) {
	w, err := s.wallets.WithTx(tx).ApplyDelta(ctx, p.walletID, p.balance, p.amount)
	if err != nil {
		return nil, err
	}
	entry := &models.WalletTransaction{
		WalletID:      w.ID,
		Type:          p.txType,
		Amount:        p.amount,
		BalanceType:   p.balance,
		ReferenceID:   p.refID,
		ReferenceType: p.refType,
	}
	if err := s.ledger.WithTx(tx).Append(ctx, entry); err != nil {
		return nil, err
	}
	return &WalletResult{Wallet: w, Transaction: entry}, nil
}

// inTx runs fn in a transaction and reruns it, up to maxRetries times, when a
// balance write lost a race. Every other error is returned unchanged.
func (s *WalletService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordConflictRetry()
		}
		err = s.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, repository.ErrConcurrencyConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("%w after %d attempts", err, s.maxRetries+1)
}
