package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/bookstore/internal/cache"
	"github.com/Alturino/bookstore/internal/constants"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/log"
	inOtel "github.com/Alturino/bookstore/internal/otel"
	"github.com/Alturino/bookstore/internal/repository"
	"github.com/Alturino/bookstore/order/otel"
	"github.com/Alturino/bookstore/order/pkg/request"
	"github.com/Alturino/bookstore/order/pkg/response"
)

type OrderService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *redis.Client
}

func NewOrderService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *redis.Client,
) *OrderService {
	return &OrderService{pool: pool, queries: queries, cache: cache}
}

// CreateOrder converts the user's cart into an order. The cart read, the
// price lookup, the order insert and the cart clear all happen in one
// transaction: either the order exists and the cart is empty, or neither.
// Each order item snapshots the book price at checkout time, so later price
// changes never alter an existing order.
func (s OrderService) CreateOrder(
	c context.Context,
	userId uuid.UUID,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreateOrder").
		Str(log.KeyUserID, userId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	defer s.rollback(c, tx, span)
	logger.Info().Msg("initialized transaction")
	qtx := s.queries.WithTx(tx)

	logger = logger.With().Str(log.KeyProcess, "locking cart").Logger()
	logger.Info().Msg("locking cart")
	cart, err := qtx.FindCartByUserIdForUpdate(c, userId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrCartNotFound
		}
		err = fmt.Errorf("failed locking cart of userId=%s with error=%w", userId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("locked cart")

	logger = logger.With().Str(log.KeyProcess, "finding cart items").Logger()
	logger.Info().Msg("finding cart items")
	cartItems, err := qtx.FindActiveCartItems(c, cart.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if len(cartItems) == 0 {
		err = fmt.Errorf(
			"failed creating order for userId=%s with error=%w",
			userId.String(),
			inErrors.ErrEmptyCart,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Int(log.KeyCartItems, len(cartItems)).Msg("found cart items")

	logger = logger.With().Str(log.KeyProcess, "finding books").Logger()
	logger.Info().Msg("finding books")
	bookIds := make([]uuid.UUID, len(cartItems))
	for i, item := range cartItems {
		bookIds[i] = item.BookID
	}
	books, err := qtx.FindBooksByIds(c, bookIds)
	if err != nil {
		err = fmt.Errorf("failed finding books with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	bookById := make(map[uuid.UUID]repository.Book, len(books))
	for _, book := range books {
		bookById[book.ID] = book
	}
	logger.Info().Msg("found books")

	logger = logger.With().Str(log.KeyProcess, "calculating total").Logger()
	logger.Info().Msg("calculating total")
	total := decimal.Zero
	for _, item := range cartItems {
		book, ok := bookById[item.BookID]
		if !ok {
			err = fmt.Errorf(
				"failed creating order, bookId=%s in cart no longer exists with error=%w",
				item.BookID.String(),
				inErrors.ErrBookNotFound,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}
		price := repository.DecimalFromNumeric(book.Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	logger.Info().Str(log.KeyTotal, total.String()).Msg("calculated total")

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	order, err := qtx.InsertOrder(c, repository.InsertOrderParams{
		ID:     uuid.New(),
		UserID: userId,
		Status: constants.OrderStatusPending,
		Total:  repository.NumericFromDecimal(total),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order items").Logger()
	logger.Info().Msg("inserting order items")
	orderItems := make([]repository.OrderItem, len(cartItems))
	for i, item := range cartItems {
		book := bookById[item.BookID]
		orderItem, err := qtx.InsertOrderItem(c, repository.InsertOrderItemParams{
			OrderID:  order.ID,
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    book.Price,
		})
		if err != nil {
			err = fmt.Errorf(
				"failed inserting order item for bookId=%s with error=%w",
				item.BookID.String(),
				err,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}
		orderItems[i] = orderItem
	}
	logger.Info().Int(log.KeyOrderItems, len(orderItems)).Msg("inserted order items")

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	if _, err = qtx.ClearCartItems(c, cart.UserID); err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("cleared cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("committed transaction")

	s.invalidateCache(c, fmt.Sprintf(cache.KeyCart, userId.String()))

	return order.Response(orderItems), nil
}

func (s OrderService) FindOrders(
	c context.Context,
	param request.FindOrders,
) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Str(log.KeyUserID, param.UserId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	orders, err := s.queries.FindOrdersByUserId(c, repository.FindOrdersByUserIdParams{
		UserID: param.UserId,
		Limit:  param.Limit,
		Offset: param.Offset,
	})
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyOrder, len(orders)).Msg("found orders")

	logger = logger.With().Str(log.KeyProcess, "finding order items").Logger()
	logger.Info().Msg("finding order items")
	orderIds := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		orderIds[i] = order.ID
	}
	items, err := s.queries.FindOrderItemsByOrderIds(c, orderIds)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	itemsByOrderId := make(map[uuid.UUID][]repository.OrderItem, len(orders))
	for _, item := range items {
		itemsByOrderId[item.OrderID] = append(itemsByOrderId[item.OrderID], item)
	}
	logger.Info().Int(log.KeyOrderItems, len(items)).Msg("found order items")

	responses := make([]response.Order, len(orders))
	for i, order := range orders {
		responses[i] = order.Response(itemsByOrderId[order.ID])
	}
	return responses, nil
}

func (s OrderService) FindOrderItems(
	c context.Context,
	userId uuid.UUID,
	orderId uuid.UUID,
) ([]response.OrderItem, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderItems")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderItems").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyOrderID, orderId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := s.findOwnedOrder(c, orderId, userId)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("found order")

	logger = logger.With().Str(log.KeyProcess, "finding order items").Logger()
	logger.Info().Msg("finding order items")
	items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyOrderItems, len(items)).Msg("found order items")

	responses := make([]response.OrderItem, len(items))
	for i, item := range items {
		responses[i] = item.Response()
	}
	return responses, nil
}

func (s OrderService) FindOrderItem(
	c context.Context,
	userId uuid.UUID,
	orderId uuid.UUID,
	orderItemId uuid.UUID,
) (response.OrderItem, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyOrderID, orderId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := s.findOwnedOrder(c, orderId, userId)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.OrderItem{}, err
	}
	logger.Info().Msg("found order")

	logger = logger.With().Str(log.KeyProcess, "finding order item").Logger()
	logger.Info().Msg("finding order item")
	item, err := s.queries.FindOrderItemByIdAndOrderId(
		c,
		repository.FindOrderItemByIdAndOrderIdParams{ID: orderItemId, OrderID: order.ID},
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrOrderItemNotFound
		}
		err = fmt.Errorf(
			"failed finding orderItemId=%s with error=%w",
			orderItemId.String(),
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.OrderItem{}, err
	}
	logger.Info().Msg("found order item")

	return item.Response(), nil
}

func (s OrderService) UpdateOrderStatus(
	c context.Context,
	userId uuid.UUID,
	orderId uuid.UUID,
	param request.UpdateOrderStatus,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService UpdateOrderStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService UpdateOrderStatus").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyOrderID, orderId.String()).
		Str(log.KeyStatus, param.Status).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "updating order status").Logger()
	logger.Info().Msg("updating order status")
	order, err := s.queries.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
		ID:     orderId,
		UserID: userId,
		Status: param.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrOrderNotFound
		}
		err = fmt.Errorf("failed updating orderId=%s with error=%w", orderId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("updated order status")

	logger = logger.With().Str(log.KeyProcess, "finding order items").Logger()
	logger.Info().Msg("finding order items")
	items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("found order items")

	return order.Response(items), nil
}

func (s OrderService) findOwnedOrder(
	c context.Context,
	orderId uuid.UUID,
	userId uuid.UUID,
) (repository.Order, error) {
	order, err := s.queries.FindOrderByIdAndUserId(c, repository.FindOrderByIdAndUserIdParams{
		ID:     orderId,
		UserID: userId,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrOrderNotFound
		}
		return repository.Order{}, fmt.Errorf(
			"failed finding orderId=%s with error=%w",
			orderId.String(),
			err,
		)
	}
	return order, nil
}

func (s OrderService) rollback(c context.Context, tx pgx.Tx, span trace.Span) {
	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "rolling back transaction").Logger()
	err := tx.Rollback(c)
	if err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return
		}
		err = fmt.Errorf("failed rolling back transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("rolled back transaction")
}

func (s OrderService) invalidateCache(c context.Context, cacheKey string) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyProcess, "invalidating cache").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	err := s.cache.Del(c, cacheKey).Err()
	if err != nil {
		logger.Warn().Err(err).Msgf("failed invalidating cache with error=%s", err.Error())
		return
	}
	logger.Trace().Msg("invalidated cache")
}
