package router

import (
	"net/http"

	"circuitrack/config"
	"circuitrack/internal/handler"
	"circuitrack/internal/middleware"
	"circuitrack/internal/repository"
	"circuitrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services is the wired service layer, shared by the router and startup tasks.
type Services struct {
	Auth          *service.AuthService
	Wallet        *service.WalletService
	Settlement    *service.SettlementService
	Cashback      *service.CashbackService
	Notifications *service.NotificationService

	walletRepo *repository.WalletRepository
	adminRepo  *repository.AdminRepository
}

func NewServices(cfg *config.Config, db *gorm.DB) *Services {
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	wallets := service.NewWalletService(db, walletRepo, ledgerRepo, cfg.Wallet.MaxRetries)
	notifSvc := service.NewNotificationService(notificationRepo)
	cashbackSvc := service.NewCashbackService(settingRepo, cfg.Cashback)
	return &Services{
		Auth:          service.NewAuthService(cfg, db, userRepo, wallets),
		Wallet:        wallets,
		Settlement:    service.NewSettlementService(wallets, orderRepo, cashbackSvc, notifSvc, cfg.Wallet.Currency),
		Cashback:      cashbackSvc,
		Notifications: notifSvc,
		walletRepo:    walletRepo,
		adminRepo:     repository.NewAdminRepository(db),
	}
}

func Setup(cfg *config.Config, svc *Services, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	authHandler := handler.NewAuthHandler(svc.Auth)
	walletHandler := handler.NewWalletHandler(svc.Wallet, svc.Cashback, cfg.Wallet.Currency)
	orderHandler := handler.NewOrderHandler(svc.Settlement)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	adminHandler := handler.NewAdminHandler(svc.adminRepo, svc.walletRepo, svc.Wallet, svc.Cashback, svc.Notifications, svc.Auth)

	authMw := middleware.AuthRequired(&cfg.JWT)
	limitMw := middleware.RateLimit(limiter)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth", limitMw)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}
		api.GET("/cashback/tiers", limitMw, walletHandler.CashbackTiers)

		me := api.Group("/me", authMw, limitMw)
		{
			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/wallet/transactions", walletHandler.GetTransactions)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		orders := api.Group("/orders", authMw, limitMw)
		{
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
		}

		api.POST("/admin/login", limitMw, adminHandler.AdminLogin)
		admin := api.Group("/admin", authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/transactions", adminHandler.ListTransactions)
			admin.GET("/wallets", adminHandler.ListWallets)
			admin.GET("/wallets/:id", adminHandler.GetWallet)
			admin.GET("/wallets/:id/reconcile", adminHandler.Reconcile)
			admin.POST("/wallets/:id/debit", adminHandler.Debit)
			admin.POST("/wallets/:id/credit", adminHandler.Credit)
			admin.POST("/wallets/:id/penalty", adminHandler.Penalty)
			admin.POST("/wallets/:id/refund", adminHandler.Refund)
			admin.GET("/settings/cashback", adminHandler.GetCashbackSettings)
			admin.PUT("/settings/cashback", adminHandler.UpdateCashbackSettings)
		}
	}
	return r
}
