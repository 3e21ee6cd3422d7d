package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Book struct {
	ID        uuid.UUID
	Title     string
	Author    string
	Isbn      string
	Price     pgtype.Numeric
	IsDeleted bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type ShoppingCart struct {
	UserID    uuid.UUID
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	BookID    uuid.UUID
	Quantity  int32
	IsDeleted bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    string
	Total     pgtype.Numeric
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	BookID    uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}
