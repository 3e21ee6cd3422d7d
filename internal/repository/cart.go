package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertCart = `
INSERT INTO shopping_carts (user_id)
VALUES ($1)
RETURNING user_id, created_at, updated_at
`

func (q *Queries) InsertCart(c context.Context, userID uuid.UUID) (ShoppingCart, error) {
	row := q.db.QueryRow(c, insertCart, userID)
	var s ShoppingCart
	err := row.Scan(&s.UserID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const findCartByUserId = `
SELECT user_id, created_at, updated_at
FROM shopping_carts
WHERE user_id = $1
`

func (q *Queries) FindCartByUserId(c context.Context, userID uuid.UUID) (ShoppingCart, error) {
	row := q.db.QueryRow(c, findCartByUserId, userID)
	var s ShoppingCart
	err := row.Scan(&s.UserID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const findCartByUserIdForUpdate = `
SELECT user_id, created_at, updated_at
FROM shopping_carts
WHERE user_id = $1
FOR UPDATE
`

// FindCartByUserIdForUpdate locks the cart row for the duration of the
// surrounding transaction so concurrent mutations of the same cart serialize.
func (q *Queries) FindCartByUserIdForUpdate(
	c context.Context,
	userID uuid.UUID,
) (ShoppingCart, error) {
	row := q.db.QueryRow(c, findCartByUserIdForUpdate, userID)
	var s ShoppingCart
	err := row.Scan(&s.UserID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const findActiveCartItems = `
SELECT id, cart_id, book_id, quantity, is_deleted, created_at, updated_at
FROM cart_items
WHERE cart_id = $1 AND NOT is_deleted
ORDER BY created_at
`

func (q *Queries) FindActiveCartItems(c context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(c, findActiveCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		var i CartItem
		if err := rows.Scan(
			&i.ID,
			&i.CartID,
			&i.BookID,
			&i.Quantity,
			&i.IsDeleted,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const findActiveCartItemsDetail = `
SELECT ci.id, ci.cart_id, ci.book_id, b.title, ci.quantity, b.price, ci.created_at, ci.updated_at
FROM cart_items ci
JOIN books b ON b.id = ci.book_id
WHERE ci.cart_id = $1 AND NOT ci.is_deleted
ORDER BY ci.created_at
`

type FindActiveCartItemsDetailRow struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	BookID    uuid.UUID
	BookTitle string
	Quantity  int32
	Price     pgtype.Numeric
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func (q *Queries) FindActiveCartItemsDetail(
	c context.Context,
	cartID uuid.UUID,
) ([]FindActiveCartItemsDetailRow, error) {
	rows, err := q.db.Query(c, findActiveCartItemsDetail, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindActiveCartItemsDetailRow{}
	for rows.Next() {
		var i FindActiveCartItemsDetailRow
		if err := rows.Scan(
			&i.ID,
			&i.CartID,
			&i.BookID,
			&i.BookTitle,
			&i.Quantity,
			&i.Price,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const findActiveCartItemByBookId = `
SELECT id, cart_id, book_id, quantity, is_deleted, created_at, updated_at
FROM cart_items
WHERE cart_id = $1 AND book_id = $2 AND NOT is_deleted
`

type FindActiveCartItemByBookIdParams struct {
	CartID uuid.UUID
	BookID uuid.UUID
}

func (q *Queries) FindActiveCartItemByBookId(
	c context.Context,
	arg FindActiveCartItemByBookIdParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, findActiveCartItemByBookId, arg.CartID, arg.BookID)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.BookID,
		&i.Quantity,
		&i.IsDeleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findActiveCartItemById = `
SELECT id, cart_id, book_id, quantity, is_deleted, created_at, updated_at
FROM cart_items
WHERE id = $1 AND cart_id = $2 AND NOT is_deleted
`

type FindActiveCartItemByIdParams struct {
	ID     uuid.UUID
	CartID uuid.UUID
}

func (q *Queries) FindActiveCartItemById(
	c context.Context,
	arg FindActiveCartItemByIdParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, findActiveCartItemById, arg.ID, arg.CartID)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.BookID,
		&i.Quantity,
		&i.IsDeleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertCartItem = `
INSERT INTO cart_items (cart_id, book_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, cart_id, book_id, quantity, is_deleted, created_at, updated_at
`

type InsertCartItemParams struct {
	CartID   uuid.UUID
	BookID   uuid.UUID
	Quantity int32
}

func (q *Queries) InsertCartItem(c context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, insertCartItem, arg.CartID, arg.BookID, arg.Quantity)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.BookID,
		&i.Quantity,
		&i.IsDeleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE id = $1 AND cart_id = $2 AND NOT is_deleted
RETURNING id, cart_id, book_id, quantity, is_deleted, created_at, updated_at
`

type UpdateCartItemQuantityParams struct {
	ID       uuid.UUID
	CartID   uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateCartItemQuantity(
	c context.Context,
	arg UpdateCartItemQuantityParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, updateCartItemQuantity, arg.ID, arg.CartID, arg.Quantity)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.BookID,
		&i.Quantity,
		&i.IsDeleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteCartItem = `
UPDATE cart_items
SET is_deleted = TRUE, updated_at = now()
WHERE id = $1 AND cart_id = $2 AND NOT is_deleted
`

type SoftDeleteCartItemParams struct {
	ID     uuid.UUID
	CartID uuid.UUID
}

func (q *Queries) SoftDeleteCartItem(
	c context.Context,
	arg SoftDeleteCartItemParams,
) (int64, error) {
	tag, err := q.db.Exec(c, softDeleteCartItem, arg.ID, arg.CartID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const clearCartItems = `
UPDATE cart_items
SET is_deleted = TRUE, updated_at = now()
WHERE cart_id = $1 AND NOT is_deleted
`

// ClearCartItems soft-deletes every active item of a cart. It is executed
// only inside the checkout transaction, and is idempotent.
func (q *Queries) ClearCartItems(c context.Context, cartID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(c, clearCartItems, cartID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
