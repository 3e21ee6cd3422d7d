package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertOrder = `
INSERT INTO orders (id, user_id, status, total)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, status, total, created_at, updated_at
`

type InsertOrderParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Status string
	Total  pgtype.Numeric
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertOrder, arg.ID, arg.UserID, arg.Status, arg.Total)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const insertOrderItem = `
INSERT INTO order_items (order_id, book_id, quantity, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, book_id, quantity, price, created_at, updated_at
`

type InsertOrderItemParams struct {
	OrderID  uuid.UUID
	BookID   uuid.UUID
	Quantity int32
	Price    pgtype.Numeric
}

func (q *Queries) InsertOrderItem(c context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(c, insertOrderItem, arg.OrderID, arg.BookID, arg.Quantity, arg.Price)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.BookID,
		&i.Quantity,
		&i.Price,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrdersByUserId = `
SELECT id, user_id, status, total, created_at, updated_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type FindOrdersByUserIdParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) FindOrdersByUserId(
	c context.Context,
	arg FindOrdersByUserIdParams,
) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByUserId, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Status,
			&o.Total,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const findOrderByIdAndUserId = `
SELECT id, user_id, status, total, created_at, updated_at
FROM orders
WHERE id = $1 AND user_id = $2
`

type FindOrderByIdAndUserIdParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// FindOrderByIdAndUserId folds the ownership check into the lookup predicate:
// an order of another user is indistinguishable from a missing order.
func (q *Queries) FindOrderByIdAndUserId(
	c context.Context,
	arg FindOrderByIdAndUserIdParams,
) (Order, error) {
	row := q.db.QueryRow(c, findOrderByIdAndUserId, arg.ID, arg.UserID)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const findOrderItemsByOrderId = `
SELECT id, order_id, book_id, quantity, price, created_at, updated_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) FindOrderItemsByOrderId(
	c context.Context,
	orderID uuid.UUID,
) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderId, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.BookID,
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

const findOrderItemsByOrderIds = `
SELECT id, order_id, book_id, quantity, price, created_at, updated_at
FROM order_items
WHERE order_id = ANY($1)
ORDER BY created_at
`

func (q *Queries) FindOrderItemsByOrderIds(
	c context.Context,
	orderIDs []uuid.UUID,
) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderIds, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.BookID,
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

const findOrderItemByIdAndOrderId = `
SELECT id, order_id, book_id, quantity, price, created_at, updated_at
FROM order_items
WHERE id = $1 AND order_id = $2
`

type FindOrderItemByIdAndOrderIdParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) FindOrderItemByIdAndOrderId(
	c context.Context,
	arg FindOrderItemByIdAndOrderIdParams,
) (OrderItem, error) {
	row := q.db.QueryRow(c, findOrderItemByIdAndOrderId, arg.ID, arg.OrderID)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.BookID,
		&i.Quantity,
		&i.Price,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, status, total, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(
	c context.Context,
	arg UpdateOrderStatusParams,
) (Order, error) {
	row := q.db.QueryRow(c, updateOrderStatus, arg.ID, arg.UserID, arg.Status)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
