package constants

const (
	AppName      = "bookstore"
	AudienceUser = "bookstore-user"

	OrderStatusPending   = "PENDING"
	OrderStatusDelivered = "DELIVERED"
)
