package domain

const (
	RoleBuyer  = "BUYER"
	RoleVendor = "VENDOR"
	RoleAdmin  = "ADMIN"
)

// DefaultCurrency is the platform settlement currency.
const DefaultCurrency = "EGP"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	NotificationOrderPlaced    = "ORDER_PLACED"
	NotificationCashbackEarned = "CASHBACK_EARNED"
	NotificationWalletAdjusted = "WALLET_ADJUSTED"
)

// SettingCashbackConfig is the system_settings key holding the active cashback policy as JSON.
const SettingCashbackConfig = "cashback_config"
