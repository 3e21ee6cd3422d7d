package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/bookstore/book/otel"
	"github.com/Alturino/bookstore/book/pkg/request"
	"github.com/Alturino/bookstore/book/pkg/response"
	"github.com/Alturino/bookstore/internal/cache"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/log"
	inOtel "github.com/Alturino/bookstore/internal/otel"
	"github.com/Alturino/bookstore/internal/repository"
)

type BookService struct {
	queries *repository.Queries
	cache   *redis.Client
}

func NewBookService(queries *repository.Queries, cache *redis.Client) *BookService {
	return &BookService{queries: queries, cache: cache}
}

func (s BookService) FindBookById(c context.Context, id uuid.UUID) (response.Book, error) {
	c, span := otel.Tracer.Start(c, "BookService FindBookById")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyBook, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookService FindBookById").
		Str(log.KeyBookID, id.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding book in cache").Logger()
	logger.Trace().Msg("finding book in cache")
	jsonCache, err := s.cache.Get(c, cacheKey).Result()
	if err == nil {
		book := response.Book{}
		if err := json.Unmarshal([]byte(jsonCache), &book); err == nil {
			logger.Info().Msg("found book in cache")
			return book, nil
		}
	}
	logger.Trace().Msg("book not in cache")

	logger = logger.With().Str(log.KeyProcess, "finding book in db").Logger()
	logger.Info().Msg("finding book in db")
	book, err := s.queries.FindBookById(c, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrBookNotFound
		}
		err = fmt.Errorf("failed finding bookId=%s with error=%w", id.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Book{}, err
	}
	logger.Info().Msg("found book in db")

	resp := book.Response()
	logger = logger.With().Str(log.KeyProcess, "inserting book to cache").Logger()
	marshaled, err := json.Marshal(resp)
	if err == nil {
		if err := s.cache.Set(c, cacheKey, marshaled, time.Hour).Err(); err != nil {
			logger.Warn().Err(err).Msgf("failed inserting book to cache with error=%s", err.Error())
		}
	}

	return resp, nil
}

func (s BookService) FindBooks(
	c context.Context,
	param request.FindBooks,
) ([]response.Book, error) {
	c, span := otel.Tracer.Start(c, "BookService FindBooks")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookService FindBooks").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding books").Logger()
	logger.Info().Msg("finding books")
	books, err := s.queries.FindBooks(c, repository.FindBooksParams{
		Limit:  param.Limit,
		Offset: param.Offset,
	})
	if err != nil {
		err = fmt.Errorf("failed finding books with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("found books")

	responses := make([]response.Book, len(books))
	for i, book := range books {
		responses[i] = book.Response()
	}
	return responses, nil
}

func (s BookService) InsertBook(
	c context.Context,
	param request.InsertBook,
) (response.Book, error) {
	c, span := otel.Tracer.Start(c, "BookService InsertBook")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookService InsertBook").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "inserting book").Logger()
	logger.Info().Msg("inserting book")
	book, err := s.queries.InsertBook(c, repository.InsertBookParams{
		Title:  param.Title,
		Author: param.Author,
		Isbn:   param.Isbn,
		Price:  repository.NumericFromDecimal(param.Price),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting book with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Book{}, err
	}
	logger.Info().Str(log.KeyBookID, book.ID.String()).Msg("inserted book")

	return book.Response(), nil
}

func (s BookService) DeleteBook(c context.Context, id uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "BookService DeleteBook")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyBook, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookService DeleteBook").
		Str(log.KeyBookID, id.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting book").Logger()
	logger.Info().Msg("deleting book")
	affected, err := s.queries.SoftDeleteBook(c, id)
	if err != nil {
		err = fmt.Errorf("failed deleting bookId=%s with error=%w", id.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if affected == 0 {
		err = fmt.Errorf(
			"failed deleting bookId=%s with error=%w",
			id.String(),
			inErrors.ErrBookNotFound,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted book")

	if err := s.cache.Del(c, cacheKey).Err(); err != nil {
		logger.Warn().Err(err).Msgf("failed invalidating book cache with error=%s", err.Error())
	}

	return nil
}
