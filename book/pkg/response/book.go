package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Book struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Isbn      string          `json:"isbn"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
