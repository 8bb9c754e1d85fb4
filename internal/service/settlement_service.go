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
	"circuitrack/pkg/cashback"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService turns a checkout into a pending order paid from the
// buyer's main balance.
type SettlementService struct {
	wallet   *WalletService
	orders   *repository.OrderRepository
	policy   *CashbackService
	notifier *NotificationService
	currency string
}

func NewSettlementService(wallet *WalletService, orders *repository.OrderRepository, policy *CashbackService, notifier *NotificationService, currency string) *SettlementService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &SettlementService{wallet: wallet, orders: orders, policy: policy, notifier: notifier, currency: currency}
}

type OrderItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PlaceOrderInput is taken as priced by the caller. Unit prices are not
// checked against the catalog here.
type PlaceOrderInput struct {
	UserID    uint
	Items     []OrderItemInput
	Subtotal  decimal.Decimal
	CompanyID *string
}

type PlaceOrderResult struct {
	Order                 *models.Order      `json:"order"`
	OrderItems            []models.OrderItem `json:"order_items"`
	WalletTransactionID   string             `json:"wallet_transaction_id"`
	CashbackAmount        decimal.Decimal    `json:"cashback_amount"`
	CashbackTransactionID string             `json:"cashback_transaction_id,omitempty"`
}

func validateOrder(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 || !it.UnitPrice.IsPositive() {
			return ErrInvalidItem
		}
	}
	return validateAmount(in.Subtotal)
}

// PlaceOrder creates the order and its items, debits the subtotal and credits
// cashback in one transaction. Either all of it commits or none of it does.
func (s *SettlementService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	res, err := s.placeOrder(ctx, in)
	metrics.RecordSettlement(resultLabel(err))
	if err != nil {
		return nil, err
	}
	if res.CashbackAmount.IsPositive() {
		metrics.RecordCashback(res.CashbackAmount)
	}
	s.notifyPlaced(in.UserID, res)
	return res, nil
}

func (s *SettlementService) placeOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	if err := validateOrder(in); err != nil {
		return nil, err
	}
	policy := cashback.Default()
	if s.policy != nil {
		policy = s.policy.Active(ctx)
	}
	reward := cashback.Calculate(in.Subtotal, policy)

	var res *PlaceOrderResult
	err := s.wallet.inTx(ctx, func(tx *gorm.DB) error {
		w, err := s.wallet.wallets.WithTx(tx).GetByUserID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if w.MainBalance.LessThan(in.Subtotal) {
			return &repository.InsufficientFundsError{Current: w.MainBalance, Required: in.Subtotal}
		}

		orders := s.orders.WithTx(tx)
		order := &models.Order{
			UserID:    in.UserID,
			CompanyID: in.CompanyID,
			Status:    domain.OrderStatusPending,
			Subtotal:  in.Subtotal,
			Currency:  s.currency,
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		if err := orders.CreateItems(ctx, items); err != nil {
			return err
		}

		debit, err := s.wallet.postTx(ctx, tx, posting{
			walletID: w.ID,
			txType:   domain.TxDebit,
			balance:  domain.BalanceMain,
			amount:   in.Subtotal.Neg(),
			refID:    order.ID,
			refType:  domain.RefOrder,
		})
		if err != nil {
			return err
		}
		res = &PlaceOrderResult{
			Order:               order,
			OrderItems:          items,
			WalletTransactionID: debit.Transaction.ID,
			CashbackAmount:      decimal.Zero,
		}
		if !reward.IsPositive() {
			return nil
		}
		cb, err := s.wallet.postTx(ctx, tx, cashbackPosting(w.ID, reward, order.ID))
		if err != nil {
			return err
		}
		res.CashbackAmount = reward
		res.CashbackTransactionID = cb.Transaction.ID
		return nil
	})
	if err == nil {
		res.Order.Items = res.OrderItems
		return res, nil
	}
	return nil, s.checkoutError(in, err)
}

func (s *SettlementService) checkoutError(in PlaceOrderInput, err error) error {
	var short *repository.InsufficientFundsError
	switch {
	case errors.Is(err, repository.ErrWalletNotFound):
		return &CheckoutError{Message: "Wallet not found. Please contact support.", Err: err}
	case errors.As(err, &short):
		return &CheckoutError{
			Message: fmt.Sprintf("Insufficient wallet balance. Your balance: %s %s, Order total: %s %s",
				s.currency, short.Current.StringFixed(2), s.currency, short.Required.StringFixed(2)),
			Err: err,
		}
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidItem), errors.Is(err, ErrInvalidAmount):
		return err
	}
	log.Printf("[settlement] place order failed user=%d subtotal=%s: %v", in.UserID, in.Subtotal, err)
	return err
}

func (s *SettlementService) notifyPlaced(userID uint, res *PlaceOrderResult) {
	if s.notifier == nil {
		return
	}
	order := res.Order
	deliver("order placed", func(ctx context.Context) error {
		return s.notifier.NotifyOrderPlaced(ctx, userID, order.ID, order.Subtotal, order.Currency)
	})
	if res.CashbackAmount.IsPositive() {
		deliver("cashback earned", func(ctx context.Context) error {
			return s.notifier.NotifyCashbackEarned(ctx, userID, order.ID, res.CashbackAmount, order.Currency)
		})
	}
}

// GetOrder returns the order only when it belongs to userID.
func (s *SettlementService) GetOrder(ctx context.Context, orderID string, userID uint) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (s *SettlementService) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByUserID(ctx, userID, limit, offset)
}
