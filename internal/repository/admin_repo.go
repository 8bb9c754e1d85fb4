package repository

import (
	"context"
	"time"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalBuyers       int64           `json:"total_buyers"`
	TotalVendors      int64           `json:"total_vendors"`
	TotalOrders       int64           `json:"total_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	TotalTransactions int64           `json:"total_transactions"`
	MainBalance       decimal.Decimal `json:"main_balance"`
	CashbackBalance   decimal.Decimal `json:"cashback_balance"`
	PenaltyBalance    decimal.Decimal `json:"penalty_balance"`
	OrderVolume       decimal.Decimal `json:"order_volume"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s DashboardStats
	if err := db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	db.Model(&models.User{}).Where("role = ?", domain.RoleBuyer).Count(&s.TotalBuyers)
	db.Model(&models.User{}).Where("role = ?", domain.RoleVendor).Count(&s.TotalVendors)
	db.Model(&models.Order{}).Count(&s.TotalOrders)
	db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusPending).Count(&s.PendingOrders)
	db.Model(&models.WalletTransaction{}).Count(&s.TotalTransactions)

	var totals struct {
		Main     decimal.NullDecimal
		Cashback decimal.NullDecimal
		Penalty  decimal.NullDecimal
	}
	err := db.Model(&models.Wallet{}).
		Select("SUM(main_balance) AS main, SUM(cashback_balance) AS cashback, SUM(penalty_balance) AS penalty").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	s.MainBalance = totals.Main.Decimal
	s.CashbackBalance = totals.Cashback.Decimal
	s.PenaltyBalance = totals.Penalty.Decimal

	var volume struct {
		Volume decimal.NullDecimal
	}
	err = db.Model(&models.Order{}).
		Select("SUM(subtotal) AS volume").
		Where("status <> ?", domain.OrderStatusCancelled).
		Scan(&volume).Error
	if err != nil {
		return nil, err
	}
	s.OrderVolume = volume.Volume.Decimal
	return &s, nil
}

// ListTransactions returns ledger entries across all wallets with an optional type filter.
func (r *AdminRepository) ListTransactions(ctx context.Context, txType string, page, limit int) ([]models.WalletTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WalletTransaction{})
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var total int64
	q.Count(&total)
	var list []models.WalletTransaction
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// OrdersByDay returns daily order counts for the last N days.
func (r *AdminRepository) OrdersByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
