package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID         uuid.UUID       `json:"id"`
	UserId     uuid.UUID       `json:"user_id"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	OrderItems []OrderItem     `json:"order_items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderId   uuid.UUID       `json:"order_id"`
	BookId    uuid.UUID       `json:"book_id"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
