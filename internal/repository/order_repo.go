package repository

import (
	"context"
	"errors"

	"circuitrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts the order row only; items are written with CreateItems.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return storageErr("create order", r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

func (r *OrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return storageErr("create order items", r.db.WithContext(ctx).Create(&items).Error)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, storageErr("get order", err)
	}
	return &o, nil
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	return list, nil
}
