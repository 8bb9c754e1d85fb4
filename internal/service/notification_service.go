package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"
	"circuitrack/internal/repository"

	"github.com/shopspring/decimal"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, message string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
	})
}

func (s *NotificationService) NotifyOrderPlaced(ctx context.Context, userID uint, orderID string, subtotal decimal.Decimal, currency string) error {
	return s.Notify(ctx, userID, domain.NotificationOrderPlaced, "Order placed",
		fmt.Sprintf("Your order for %s %s has been placed.", currency, subtotal.StringFixed(2)),
		map[string]interface{}{"order_id": orderID, "subtotal": subtotal.StringFixed(2)})
}

func (s *NotificationService) NotifyCashbackEarned(ctx context.Context, userID uint, orderID string, amount decimal.Decimal, currency string) error {
	return s.Notify(ctx, userID, domain.NotificationCashbackEarned, "Cashback earned",
		fmt.Sprintf("You earned %s %s cashback.", currency, amount.StringFixed(2)),
		map[string]interface{}{"order_id": orderID, "amount": amount.StringFixed(2)})
}

// NotifyWalletAdjusted tells the owner about a manual adjustment made by an admin.
func (s *NotificationService) NotifyWalletAdjusted(ctx context.Context, userID uint, tx *models.WalletTransaction) error {
	return s.Notify(ctx, userID, domain.NotificationWalletAdjusted, "Wallet updated",
		fmt.Sprintf("A %s of %s was applied to your %s balance.", tx.Type, tx.Amount.Abs().StringFixed(2), tx.BalanceType),
		map[string]interface{}{"transaction_id": tx.ID, "type": tx.Type, "amount": tx.Amount.StringFixed(2)})
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	list, err := s.repo.ListByUserID(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// deliver runs send detached from the request. A failed notification never
// affects the operation that produced it.
func deliver(name string, send func(ctx context.Context) error) {
	if err := send(context.Background()); err != nil {
		log.Printf("[notify] %s: %v", name, err)
	}
}
