package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"circuitrack/internal/domain"
	"circuitrack/internal/middleware"
	"circuitrack/internal/repository"
	"circuitrack/internal/service"
	"circuitrack/pkg/cashback"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	adminRepo  *repository.AdminRepository
	walletRepo *repository.WalletRepository
	wallets    *service.WalletService
	cashback   *service.CashbackService
	notifier   *service.NotificationService
	authSvc    *service.AuthService
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	walletRepo *repository.WalletRepository,
	wallets *service.WalletService,
	cashback *service.CashbackService,
	notifier *service.NotificationService,
	authSvc *service.AuthService,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:  adminRepo,
		walletRepo: walletRepo,
		wallets:    wallets,
		cashback:   cashback,
		notifier:   notifier,
		authSvc:    authSvc,
	}
}

// AdjustRequest is the body of the manual wallet adjustment endpoints.
type AdjustRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	ReferenceID   string               `json:"reference_id" binding:"max=64"`
	ReferenceType domain.ReferenceType `json:"reference_type"`
}

// AdminLogin handles POST /admin/login.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	points, err := h.adminRepo.OrdersByDay(c.Request.Context(), days)
	if err != nil {
		writeError(c, err, "failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders_by_day": points, "days": days})
}

// ListTransactions handles GET /admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListTransactions(c.Request.Context(), c.Query("type"), page, limit)
	if err != nil {
		writeError(c, err, "failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListWallets handles GET /admin/wallets.
func (h *AdminHandler) ListWallets(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.walletRepo.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		writeError(c, err, "failed to list wallets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetWallet handles GET /admin/wallets/:id.
func (h *AdminHandler) GetWallet(c *gin.Context) {
	ctx := c.Request.Context()
	w, err := h.wallets.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err, "wallet error")
		return
	}
	recent, err := h.wallets.ListTransactions(ctx, w.ID, 20)
	if err != nil {
		writeError(c, err, "wallet error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w, "recent_transactions": recent})
}

// Reconcile handles GET /admin/wallets/:id/reconcile.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	rec, err := h.wallets.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "reconcile failed")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Debit handles POST /admin/wallets/:id/debit.
func (h *AdminHandler) Debit(c *gin.Context) {
	h.adjust(c, func(ctx context.Context, id string, req AdjustRequest) (*service.WalletResult, error) {
		return h.wallets.Debit(ctx, id, req.Amount, req.ReferenceID, req.ReferenceType)
	})
}

// Credit handles POST /admin/wallets/:id/credit.
func (h *AdminHandler) Credit(c *gin.Context) {
	h.adjust(c, func(ctx context.Context, id string, req AdjustRequest) (*service.WalletResult, error) {
		return h.wallets.Credit(ctx, id, req.Amount, req.ReferenceID, refTypeOr(req.ReferenceType, domain.RefTopup))
	})
}

// Penalty handles POST /admin/wallets/:id/penalty.
func (h *AdminHandler) Penalty(c *gin.Context) {
	h.adjust(c, func(ctx context.Context, id string, req AdjustRequest) (*service.WalletResult, error) {
		return h.wallets.ApplyPenalty(ctx, id, req.Amount, req.ReferenceID)
	})
}

// Refund handles POST /admin/wallets/:id/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	h.adjust(c, func(ctx context.Context, id string, req AdjustRequest) (*service.WalletResult, error) {
		return h.wallets.Refund(ctx, id, req.Amount, req.ReferenceID)
	})
}

func (h *AdminHandler) adjust(c *gin.Context, op func(ctx context.Context, walletID string, req AdjustRequest) (*service.WalletResult, error)) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.ReferenceType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_type"})
		return
	}
	if !req.ReferenceType.Manual() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_type " + string(req.ReferenceType) + " is reserved for checkout"})
		return
	}
	res, err := op(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "adjustment failed")
		return
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyWalletAdjusted(c.Request.Context(), res.Wallet.UserID, res.Transaction); err != nil {
			log.Printf("[notify] wallet adjusted wallet=%s: %v", res.Wallet.ID, err)
		}
	}
	c.JSON(http.StatusOK, res)
}

func refTypeOr(rt, def domain.ReferenceType) domain.ReferenceType {
	if rt == "" {
		return def
	}
	return rt
}

// GetCashbackSettings handles GET /admin/settings/cashback.
func (h *AdminHandler) GetCashbackSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.cashback.Active(c.Request.Context()))
}

// UpdateCashbackSettings handles PUT /admin/settings/cashback.
func (h *AdminHandler) UpdateCashbackSettings(c *gin.Context) {
	var cfg cashback.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.cashback.Update(c.Request.Context(), cfg, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to save settings")
		return
	}
	c.JSON(http.StatusOK, saved)
}
