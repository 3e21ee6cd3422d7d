package log

const (
	KeyAppName    = "app-name"
	KeyBookID     = "bookId"
	KeyCacheKey   = "cacheKey"
	KeyCart       = "cart"
	KeyCartID     = "cartId"
	KeyCartItemID = "cartItemId"
	KeyCartItems  = "cartItems"
	KeyConfig     = "config"
	KeyDbURL      = "dbUrl"
	KeyEmail      = "email"
	KeyOrder      = "order"
	KeyOrderID    = "orderId"
	KeyOrderItems = "orderItems"
	KeyProcess    = "process"
	KeyQuantity   = "quantity"
	KeyRequestID  = "X-Request-Id"
	KeyStatus     = "status"
	KeyTag        = "tag"
	KeyToken      = "token"
	KeyTotal      = "total"
	KeyUserID     = "userId"
)
