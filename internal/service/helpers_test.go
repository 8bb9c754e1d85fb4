package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"
	"circuitrack/internal/repository"
	"circuitrack/pkg/cashback"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// newTestDB opens a private in-memory database. One connection keeps
// transactions strictly serialized.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.SystemSetting{},
	))
	return db
}

type fixture struct {
	db            *gorm.DB
	wallets       *WalletService
	settlement    *SettlementService
	cashback      *CashbackService
	notifications *NotificationService
	ledger        *repository.LedgerRepository
	orders        *repository.OrderRepository
	notifRepo     *repository.NotificationRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	orders := repository.NewOrderRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	wallets := NewWalletService(db, repository.NewWalletRepository(db), ledger, 3)
	cb := NewCashbackService(repository.NewSettingRepository(db), cashback.Default())
	notifications := NewNotificationService(notifRepo)
	return &fixture{
		db:            db,
		wallets:       wallets,
		settlement:    NewSettlementService(wallets, orders, cb, notifications, domain.DefaultCurrency),
		cashback:      cb,
		notifications: notifications,
		ledger:        ledger,
		orders:        orders,
		notifRepo:     notifRepo,
	}
}

// newBuyer creates a buyer and a wallet funded with opening through the ledger.
func (f *fixture) newBuyer(t *testing.T, opening string) (*models.User, *models.Wallet) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Email: fmt.Sprintf("buyer%d@example.com", dbSeq.Add(1)), Role: domain.RoleBuyer}
	require.NoError(t, f.db.Create(u).Error)
	var w *models.Wallet
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = f.wallets.ProvisionTx(ctx, tx, u.ID, dec(opening))
		return err
	})
	require.NoError(t, err)
	return u, w
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
