package handler

import (
	"net/http"
	"strconv"

	"circuitrack/internal/middleware"
	"circuitrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	wallets  *service.WalletService
	cashback *service.CashbackService
	currency string
}

func NewWalletHandler(wallets *service.WalletService, cashback *service.CashbackService, currency string) *WalletHandler {
	return &WalletHandler{wallets: wallets, cashback: cashback, currency: currency}
}

// GetBalance handles GET /me/wallet.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	w, err := h.wallets.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "wallet error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet_id":        w.ID,
		"main_balance":     w.MainBalance,
		"cashback_balance": w.CashbackBalance,
		"penalty_balance":  w.PenaltyBalance,
		"currency":         h.currency,
	})
}

// GetTransactions handles GET /me/wallet/transactions.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	w, err := h.wallets.GetByUser(ctx, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "wallet error")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	list, err := h.wallets.ListTransactions(ctx, w.ID, limit)
	if err != nil {
		writeError(c, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// CashbackTiers handles GET /cashback/tiers?total=.
func (h *WalletHandler) CashbackTiers(c *gin.Context) {
	total, err := decimal.NewFromString(c.DefaultQuery("total", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total"})
		return
	}
	info, err := h.cashback.Tiers(c.Request.Context(), total)
	if err != nil {
		writeError(c, err, "cashback lookup failed")
		return
	}
	c.JSON(http.StatusOK, info)
}
