package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
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

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createWallet(t *testing.T, db *gorm.DB, userID uint) *models.Wallet {
	t.Helper()
	w := &models.Wallet{UserID: userID}
	require.NoError(t, NewWalletRepository(db).Create(context.Background(), w))
	require.NotEmpty(t, w.ID)
	return w
}

func TestWalletApplyDelta(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewWalletRepository(db)
	w := createWallet(t, db, 1)

	got, err := repo.ApplyDelta(ctx, w.ID, domain.BalanceMain, d("10.25"))
	require.NoError(t, err)
	assert.True(t, got.MainBalance.Equal(d("10.25")))
	assert.EqualValues(t, 1, got.Version)

	got, err = repo.ApplyDelta(ctx, w.ID, domain.BalancePenalty, d("3"))
	require.NoError(t, err)
	assert.True(t, got.PenaltyBalance.Equal(d("3")))
	assert.EqualValues(t, 2, got.Version)

	_, err = repo.ApplyDelta(ctx, w.ID, domain.BalanceMain, d("-10.26"))
	var short *InsufficientFundsError
	require.True(t, errors.As(err, &short))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, "insufficient wallet balance: balance 10.25, required 10.26", err.Error())

	stored, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, stored.MainBalance.Equal(d("10.25")))
	assert.EqualValues(t, 2, stored.Version)
}

func TestWalletApplyDeltaUnknown(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWalletRepository(db)

	_, err := repo.ApplyDelta(context.Background(), "nope", domain.BalanceMain, d("1"))
	assert.ErrorIs(t, err, ErrWalletNotFound)

	w := createWallet(t, db, 1)
	_, err = repo.ApplyDelta(context.Background(), w.ID, domain.BalanceType("bonus"), d("1"))
	assert.Error(t, err)
}

func TestWalletOnePerUser(t *testing.T) {
	db := setupTestDB(t)
	createWallet(t, db, 7)
	err := NewWalletRepository(db).Create(context.Background(), &models.Wallet{UserID: 7})
	var storage *StorageError
	assert.True(t, errors.As(err, &storage))

	got, err := NewWalletRepository(db).GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)
}

func TestLedgerListAndReplay(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewLedgerRepository(db)
	w := createWallet(t, db, 1)
	base := time.Now().Add(-time.Hour)

	entries := []models.WalletTransaction{
		{WalletID: w.ID, Type: domain.TxCredit, Amount: d("100"), BalanceType: domain.BalanceMain, ReferenceType: domain.RefTopup, CreatedAt: base},
		{WalletID: w.ID, Type: domain.TxDebit, Amount: d("-40.10"), BalanceType: domain.BalanceMain, ReferenceID: "o-1", ReferenceType: domain.RefOrder, CreatedAt: base.Add(time.Minute)},
		{WalletID: w.ID, Type: domain.TxCashback, Amount: d("0.40"), BalanceType: domain.BalanceCashback, ReferenceID: "o-1", ReferenceType: domain.RefCashback, CreatedAt: base.Add(2 * time.Minute)},
		{WalletID: "other", Type: domain.TxCredit, Amount: d("999"), BalanceType: domain.BalanceMain, CreatedAt: base},
	}
	for i := range entries {
		require.NoError(t, ledger.Append(ctx, &entries[i]))
		require.NotEmpty(t, entries[i].ID)
	}

	list, err := ledger.ListByWallet(ctx, w.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.TxCashback, list[0].Type)
	assert.Equal(t, domain.TxCredit, list[2].Type)

	limited, err := ledger.ListByWallet(ctx, w.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byOrder, err := ledger.ListByReference(ctx, domain.RefOrder, "o-1")
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.True(t, byOrder[0].Amount.Equal(d("-40.10")))

	sums, err := ledger.Replay(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, sums[domain.BalanceMain].Equal(d("59.90")))
	assert.True(t, sums[domain.BalanceCashback].Equal(d("0.40")))
	assert.True(t, sums[domain.BalancePenalty].IsZero())

	n, err := ledger.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestLedgerReplayEmptyWallet(t *testing.T) {
	db := setupTestDB(t)
	sums, err := NewLedgerRepository(db).Replay(context.Background(), "none")
	require.NoError(t, err)
	for _, bt := range domain.BalanceTypes {
		assert.True(t, sums[bt].IsZero())
	}
}

func TestOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	o := &models.Order{UserID: 3, Status: domain.OrderStatusPending, Subtotal: d("25"), Currency: domain.DefaultCurrency}
	require.NoError(t, repo.Create(ctx, o))
	require.NoError(t, repo.CreateItems(ctx, []models.OrderItem{
		{OrderID: o.ID, ProductID: "a", Quantity: 1, UnitPrice: d("5")},
		{OrderID: o.ID, ProductID: "b", Quantity: 2, UnitPrice: d("10")},
	}))
	require.NoError(t, repo.CreateItems(ctx, nil))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	list, err := repo.ListByUserID(ctx, 3, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSettingRepositoryUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewSettingRepository(db)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	admin := uint(1)
	require.NoError(t, repo.SetJSON(ctx, "limits", map[string]int{"max": 1}, &admin))
	require.NoError(t, repo.SetJSON(ctx, "limits", map[string]int{"max": 2}, &admin))

	var out map[string]int
	require.NoError(t, repo.GetJSON(ctx, "limits", &out))
	assert.Equal(t, 2, out["max"])

	var count int64
	require.NoError(t, db.Model(&models.SystemSetting{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: 5, Type: domain.NotificationOrderPlaced, Title: "t"}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: 6, Type: domain.NotificationOrderPlaced}))

	list, err := repo.ListByUserID(ctx, 5, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	ok, err := repo.MarkRead(ctx, list[0].ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.MarkRead(ctx, list[0].ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repo.CountUnread(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	n, err := repo.MarkAllRead(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	left, err := repo.ListByUserID(ctx, 5, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.User{Email: "b@x.io", Role: domain.RoleBuyer}).Error)
	require.NoError(t, db.Create(&models.User{Email: "v@x.io", Role: domain.RoleVendor}).Error)
	w := createWallet(t, db, 1)
	_, err := NewWalletRepository(db).ApplyDelta(ctx, w.ID, domain.BalanceMain, d("12.50"))
	require.NoError(t, err)
	require.NoError(t, NewOrderRepository(db).Create(ctx, &models.Order{UserID: 1, Status: domain.OrderStatusPending, Subtotal: d("7.5"), Currency: domain.DefaultCurrency}))

	stats, err := NewAdminRepository(db).GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalBuyers)
	assert.EqualValues(t, 1, stats.TotalVendors)
	assert.EqualValues(t, 1, stats.PendingOrders)
	assert.True(t, stats.MainBalance.Equal(d("12.5")), stats.MainBalance.String())
	assert.True(t, stats.OrderVolume.Equal(d("7.5")), stats.OrderVolume.String())
}
