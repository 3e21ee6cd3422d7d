package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/bookstore/cart/otel"
	"github.com/Alturino/bookstore/cart/pkg/request"
	"github.com/Alturino/bookstore/cart/pkg/response"
	"github.com/Alturino/bookstore/internal/cache"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/log"
	inOtel "github.com/Alturino/bookstore/internal/otel"
	"github.com/Alturino/bookstore/internal/repository"
)

const uniqueViolation = "23505"

type CartService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *redis.Client
}

func NewCartService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *redis.Client,
) *CartService {
	return &CartService{pool: pool, queries: queries, cache: cache}
}

func (s CartService) FindCartByUserId(
	c context.Context,
	userId uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCartByUserId")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyCart, userId.String())
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCartByUserId").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart in cache").Logger()
	logger.Trace().Msg("finding cart in cache")
	jsonCache, err := s.cache.Get(c, cacheKey).Result()
	if err == nil {
		cart := response.Cart{}
		if err := json.Unmarshal([]byte(jsonCache), &cart); err == nil {
			logger.Info().Msg("found cart in cache")
			return cart, nil
		}
	}
	logger.Trace().Msg("cart not in cache")

	logger = logger.With().Str(log.KeyProcess, "finding cart in db").Logger()
	logger.Info().Msg("finding cart in db")
	cart, err := s.refreshCart(c, s.queries, userId)
	if err != nil {
		err = fmt.Errorf("failed finding cart by userId=%s with error=%w", userId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart in db")

	s.setCartCache(c, cacheKey, cart)

	return cart, nil
}

func (s CartService) InsertCartItem(
	c context.Context,
	userId uuid.UUID,
	param request.InsertCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService InsertCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService InsertCartItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyBookID, param.BookId.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity < 1 {
		err := fmt.Errorf(
			"failed inserting cart item with quantity=%d with error=%w",
			param.Quantity,
			inErrors.ErrInvalidQuantity,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
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
		return response.Cart{}, err
	}
	logger.Info().Msg("locked cart")

	logger = logger.With().Str(log.KeyProcess, "finding book").Logger()
	logger.Info().Msg("finding book")
	if _, err = qtx.FindBookById(c, param.BookId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrBookNotFound
		}
		err = fmt.Errorf("failed finding bookId=%s with error=%w", param.BookId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found book")

	logger = logger.With().Str(log.KeyProcess, "checking duplicate cart item").Logger()
	logger.Info().Msg("checking duplicate cart item")
	_, err = qtx.FindActiveCartItemByBookId(c, repository.FindActiveCartItemByBookIdParams{
		CartID: cart.UserID,
		BookID: param.BookId,
	})
	if err == nil {
		err = fmt.Errorf(
			"failed inserting cart item for bookId=%s with error=%w",
			param.BookId.String(),
			inErrors.ErrDuplicateCartItem,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed checking duplicate cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("no duplicate cart item")

	logger = logger.With().Str(log.KeyProcess, "inserting cart item").Logger()
	logger.Info().Msg("inserting cart item")
	_, err = qtx.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:   cart.UserID,
		BookID:   param.BookId,
		Quantity: param.Quantity,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = inErrors.ErrDuplicateCartItem
		}
		err = fmt.Errorf("failed inserting cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("inserted cart item")

	logger = logger.With().Str(log.KeyProcess, "refreshing cart").Logger()
	logger.Info().Msg("refreshing cart")
	refreshed, err := s.refreshCart(c, qtx, userId)
	if err != nil {
		err = fmt.Errorf("failed refreshing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("refreshed cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	s.invalidateCartCache(c, userId)

	return refreshed, nil
}

func (s CartService) UpdateCartItem(
	c context.Context,
	userId uuid.UUID,
	cartItemId uuid.UUID,
	param request.UpdateCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateCartItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyCartItemID, cartItemId.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity < 1 {
		err := fmt.Errorf(
			"failed updating cart item with quantity=%d with error=%w",
			param.Quantity,
			inErrors.ErrInvalidQuantity,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
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
		return response.Cart{}, err
	}
	logger.Info().Msg("locked cart")

	// The ownership check precedes the mutation: an item outside this user's
	// cart is reported as not found, never touched.
	logger = logger.With().Str(log.KeyProcess, "updating cart item").Logger()
	logger.Info().Msg("updating cart item")
	_, err = qtx.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
		ID:       cartItemId,
		CartID:   cart.UserID,
		Quantity: param.Quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrCartItemNotFound
		}
		err = fmt.Errorf(
			"failed updating cartItemId=%s with error=%w",
			cartItemId.String(),
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("updated cart item")

	logger = logger.With().Str(log.KeyProcess, "refreshing cart").Logger()
	logger.Info().Msg("refreshing cart")
	refreshed, err := s.refreshCart(c, qtx, userId)
	if err != nil {
		err = fmt.Errorf("failed refreshing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("refreshed cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	s.invalidateCartCache(c, userId)

	return refreshed, nil
}

func (s CartService) RemoveCartItem(
	c context.Context,
	userId uuid.UUID,
	cartItemId uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveCartItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyCartItemID, cartItemId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
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
		return response.Cart{}, err
	}
	logger.Info().Msg("locked cart")

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	affected, err := qtx.SoftDeleteCartItem(c, repository.SoftDeleteCartItemParams{
		ID:     cartItemId,
		CartID: cart.UserID,
	})
	if err != nil {
		err = fmt.Errorf("failed removing cartItemId=%s with error=%w", cartItemId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if affected == 0 {
		err = fmt.Errorf(
			"failed removing cartItemId=%s with error=%w",
			cartItemId.String(),
			inErrors.ErrCartItemNotFound,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("removed cart item")

	logger = logger.With().Str(log.KeyProcess, "refreshing cart").Logger()
	logger.Info().Msg("refreshing cart")
	refreshed, err := s.refreshCart(c, qtx, userId)
	if err != nil {
		err = fmt.Errorf("failed refreshing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("refreshed cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	s.invalidateCartCache(c, userId)

	return refreshed, nil
}

func (s CartService) refreshCart(
	c context.Context,
	queries *repository.Queries,
	userId uuid.UUID,
) (response.Cart, error) {
	cart, err := queries.FindCartByUserId(c, userId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return response.Cart{}, inErrors.ErrCartNotFound
		}
		return response.Cart{}, err
	}
	items, err := queries.FindActiveCartItemsDetail(c, cart.UserID)
	if err != nil {
		return response.Cart{}, err
	}
	return cart.Response(items), nil
}

func (s CartService) rollback(c context.Context, tx pgx.Tx, span trace.Span) {
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

func (s CartService) setCartCache(c context.Context, cacheKey string, cart response.Cart) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyProcess, "inserting cart to cache").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	marshaled, err := json.Marshal(cart)
	if err != nil {
		logger.Warn().Err(err).Msgf("failed marshaling cart with error=%s", err.Error())
		return
	}
	err = s.cache.Set(c, cacheKey, marshaled, time.Hour).Err()
	if err != nil {
		logger.Warn().Err(err).Msgf("failed inserting cart to cache with error=%s", err.Error())
		return
	}
	logger.Trace().Msg("inserted cart to cache")
}

func (s CartService) invalidateCartCache(c context.Context, userId uuid.UUID) {
	cacheKey := fmt.Sprintf(cache.KeyCart, userId.String())
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyProcess, "invalidating cart cache").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	err := s.cache.Del(c, cacheKey).Err()
	if err != nil {
		logger.Warn().Err(err).Msgf("failed invalidating cart cache with error=%s", err.Error())
		return
	}
	logger.Trace().Msg("invalidated cart cache")
}
