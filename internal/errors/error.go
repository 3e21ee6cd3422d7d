package errors

import (
	"errors"
)

var (
	ErrEmptyAuth    = errors.New("missing authorization")
	ErrTokenInvalid = errors.New("invalid token")

	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrPasswordMismatch = errors.New("password mismatch")

	ErrBookNotFound = errors.New("book not found")

	ErrCartNotFound      = errors.New("shopping cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrDuplicateCartItem = errors.New("book is already added to shopping cart")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrEmptyCart         = errors.New("shopping cart is empty")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
)
