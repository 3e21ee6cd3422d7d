package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/bookstore/internal/constants"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/repository"
	"github.com/Alturino/bookstore/order/pkg/request"
)

var (
	aliceId = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bobId   = uuid.MustParse("22222222-2222-2222-2222-222222222222")

	goBookId   = uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	ddiaBookId = uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb")
)

func seedPaths() []string {
	return []string{
		filepath.Join("seed", "users.seed.sql"),
		filepath.Join("seed", "books.seed.sql"),
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 2,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)
	assert.Equal(t, aliceId, order.UserId)
	assert.Equal(t, constants.OrderStatusPending, order.Status)
	assert.True(
		t,
		order.Total.Equal(decimal.RequireFromString("20.00")),
		"expected total 20.00 got %s",
		order.Total,
	)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, goBookId, order.OrderItems[0].BookId)
	assert.Equal(t, int32(2), order.OrderItems[0].Quantity)
	assert.True(t, order.OrderItems[0].Price.Equal(decimal.RequireFromString("10.00")))

	cartItems, err := queries.FindActiveCartItems(c, aliceId)
	require.NoError(t, err)
	assert.Empty(t, cartItems, "checkout should empty the cart")
}

func TestCreateOrderTotalSpansMultipleBooks(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 3,
	})
	require.NoError(t, err)
	_, err = queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   ddiaBookId,
		Quantity: 2,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)
	// 3 * 10.00 + 2 * 25.50
	assert.True(
		t,
		order.Total.Equal(decimal.RequireFromString("81.00")),
		"expected total 81.00 got %s",
		order.Total,
	)
	assert.Len(t, order.OrderItems, 2)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := orderService.CreateOrder(c, aliceId)
	require.ErrorIs(t, err, inErrors.ErrEmptyCart)

	orders, err := queries.FindOrdersByUserId(c, repository.FindOrdersByUserIdParams{
		UserID: aliceId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, orders, "failed checkout should persist nothing")
}

func TestCreateOrderMissingBookAborts(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)

	affected, err := queries.SoftDeleteBook(c, goBookId)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = orderService.CreateOrder(c, aliceId)
	require.ErrorIs(t, err, inErrors.ErrBookNotFound)

	orders, err := queries.FindOrdersByUserId(c, repository.FindOrdersByUserIdParams{
		UserID: aliceId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, orders, "aborted checkout should create no order")

	cartItems, err := queries.FindActiveCartItems(c, aliceId)
	require.NoError(t, err)
	assert.Len(t, cartItems, 1, "aborted checkout should leave the cart intact")
}

func TestCreateOrderRollsBackWhenCartClearFails(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 2,
	})
	require.NoError(t, err)

	// Fail the transaction after the order and its items are inserted: the
	// cart clear is the last write, so a trigger that rejects soft-deleting
	// cart items makes checkout fail mid-flight.
	_, err = pool.Exec(c, `
		CREATE FUNCTION reject_cart_clear() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'cart clear rejected';
		END;
		$$ LANGUAGE plpgsql`)
	require.NoError(t, err)
	_, err = pool.Exec(c, `
		CREATE TRIGGER cart_items_reject_clear
		BEFORE UPDATE ON cart_items
		FOR EACH ROW
		WHEN (NEW.is_deleted AND NOT OLD.is_deleted)
		EXECUTE FUNCTION reject_cart_clear()`)
	require.NoError(t, err)

	_, err = orderService.CreateOrder(c, aliceId)
	require.Error(t, err)

	orders, err := queries.FindOrdersByUserId(c, repository.FindOrdersByUserIdParams{
		UserID: aliceId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, orders, "failed checkout should roll back the order insert")

	cartItems, err := queries.FindActiveCartItems(c, aliceId)
	require.NoError(t, err)
	require.Len(t, cartItems, 1, "failed checkout should leave the cart intact")
	assert.Equal(t, int32(2), cartItems[0].Quantity)

	// With the fault removed the same cart checks out cleanly.
	_, err = pool.Exec(c, "DROP TRIGGER cart_items_reject_clear ON cart_items")
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("20.00")))

	cartItems, err = queries.FindActiveCartItems(c, aliceId)
	require.NoError(t, err)
	assert.Empty(t, cartItems)
}

func TestCreateOrderSnapshotsPrice(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)

	_, err = pool.Exec(c, "UPDATE books SET price = 99.99 WHERE id = $1", goBookId)
	require.NoError(t, err)

	found, err := orderService.FindOrderItems(c, aliceId, order.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(
		t,
		found[0].Price.Equal(decimal.RequireFromString("10.00")),
		"order item should keep the checkout-time price, got %s",
		found[0].Price,
	)
}

func TestFindOrdersOwnership(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)

	_, err = orderService.FindOrderItems(c, bobId, order.ID)
	require.ErrorIs(t, err, inErrors.ErrOrderNotFound)

	bobOrders, err := orderService.FindOrders(c, request.FindOrders{
		UserId: bobId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, bobOrders)

	aliceOrders, err := orderService.FindOrders(c, request.FindOrders{
		UserId: aliceId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	require.Len(t, aliceOrders, 1)
	assert.Equal(t, order.ID, aliceOrders[0].ID)
	require.Len(t, aliceOrders[0].OrderItems, 1)
	assert.Equal(t, goBookId, aliceOrders[0].OrderItems[0].BookId)
}

func TestFindOrdersReturnsItemsPerOrder(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)
	first, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)

	_, err = queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   ddiaBookId,
		Quantity: 2,
	})
	require.NoError(t, err)
	second, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)

	orders, err := orderService.FindOrders(c, request.FindOrders{
		UserId: aliceId,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	itemsByOrderId := map[uuid.UUID][]uuid.UUID{}
	for _, order := range orders {
		for _, item := range order.OrderItems {
			itemsByOrderId[order.ID] = append(itemsByOrderId[order.ID], item.BookId)
		}
	}
	assert.Equal(t, []uuid.UUID{goBookId}, itemsByOrderId[first.ID])
	assert.Equal(t, []uuid.UUID{ddiaBookId}, itemsByOrderId[second.ID])
}

func TestFindOrderItemNotFound(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)

	_, err = orderService.FindOrderItem(c, aliceId, order.ID, uuid.New())
	require.ErrorIs(t, err, inErrors.ErrOrderItemNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, queries, orderService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   aliceId,
		BookID:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)

	order, err := orderService.CreateOrder(c, aliceId)
	require.NoError(t, err)
	require.Equal(t, constants.OrderStatusPending, order.Status)

	_, err = orderService.UpdateOrderStatus(c, bobId, order.ID, request.UpdateOrderStatus{
		Status: constants.OrderStatusDelivered,
	})
	require.ErrorIs(t, err, inErrors.ErrOrderNotFound)

	updated, err := orderService.UpdateOrderStatus(c, aliceId, order.ID, request.UpdateOrderStatus{
		Status: constants.OrderStatusDelivered,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusDelivered, updated.Status)
}
