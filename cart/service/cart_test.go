package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/bookstore/cart/pkg/request"
	inErrors "github.com/Alturino/bookstore/internal/errors"
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

func TestFindCartByUserIdEmptyCart(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	cart, err := cartService.FindCartByUserId(c, aliceId)
	require.NoError(t, err)
	assert.Equal(t, aliceId, cart.UserID)
	assert.Empty(t, cart.CartItems)
}

func TestInsertCartItemDuplicateBook(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	cart, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)

	_, err = cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 3,
	})
	require.ErrorIs(t, err, inErrors.ErrDuplicateCartItem)

	cart, err = cartService.FindCartByUserId(c, aliceId)
	require.NoError(t, err)
	assert.Len(t, cart.CartItems, 1)
	assert.Equal(t, int32(1), cart.CartItems[0].Quantity)
}

func TestInsertCartItemConcurrentSameBook(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	workerCount := 4
	errs := make([]error, workerCount)
	var wg sync.WaitGroup
	for i := range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
				BookId:   goBookId,
				Quantity: 1,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, inErrors.ErrDuplicateCartItem)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent add should win")

	cart, err := cartService.FindCartByUserId(c, aliceId)
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, int32(1), cart.CartItems[0].Quantity)
}

func TestInsertCartItemAfterRemove(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	cart, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)

	cart, err = cartService.RemoveCartItem(c, aliceId, cart.CartItems[0].ID)
	require.NoError(t, err)
	require.Empty(t, cart.CartItems)

	cart, err = cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 5,
	})
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, int32(5), cart.CartItems[0].Quantity)
}

func TestInsertCartItemUnknownBook(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   uuid.New(),
		Quantity: 1,
	})
	require.ErrorIs(t, err, inErrors.ErrBookNotFound)
}

func TestInsertCartItemInvalidQuantity(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 0,
	})
	require.ErrorIs(t, err, inErrors.ErrInvalidQuantity)

	cart, err := cartService.FindCartByUserId(c, aliceId)
	require.NoError(t, err)
	assert.Empty(t, cart.CartItems)
}

func TestUpdateCartItemOwnership(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	aliceCart, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   goBookId,
		Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, aliceCart.CartItems, 1)
	aliceItemId := aliceCart.CartItems[0].ID

	_, err = cartService.UpdateCartItem(c, bobId, aliceItemId, request.UpdateCartItem{Quantity: 9})
	require.ErrorIs(t, err, inErrors.ErrCartItemNotFound)

	_, err = cartService.RemoveCartItem(c, bobId, aliceItemId)
	require.ErrorIs(t, err, inErrors.ErrCartItemNotFound)

	aliceCart, err = cartService.FindCartByUserId(c, aliceId)
	require.NoError(t, err)
	require.Len(t, aliceCart.CartItems, 1)
	assert.Equal(t, int32(1), aliceCart.CartItems[0].Quantity)
}

func TestUpdateCartItemQuantity(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	cart, err := cartService.InsertCartItem(c, aliceId, request.InsertCartItem{
		BookId:   ddiaBookId,
		Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)

	cart, err = cartService.UpdateCartItem(
		c,
		aliceId,
		cart.CartItems[0].ID,
		request.UpdateCartItem{Quantity: 4},
	)
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, int32(4), cart.CartItems[0].Quantity)
}

func TestRemoveCartItemNotFound(t *testing.T) {
	c := context.Background()
	redisClient, pool, pgContainer, redisContainer, _, cartService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := cartService.RemoveCartItem(c, aliceId, uuid.New())
	require.ErrorIs(t, err, inErrors.ErrCartItemNotFound)
}
