package request

import (
	"github.com/google/uuid"
)

type InsertCartItem struct {
	BookId   uuid.UUID `validate:"required"       json:"book_id"`
	Quantity int32     `validate:"required,gte=1" json:"quantity"`
}

type UpdateCartItem struct {
	Quantity int32 `validate:"required,gte=1" json:"quantity"`
}
