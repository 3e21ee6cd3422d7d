package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/bookstore/internal/config"
	"github.com/Alturino/bookstore/internal/constants"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/log"
	inOtel "github.com/Alturino/bookstore/internal/otel"
	"github.com/Alturino/bookstore/internal/repository"
	"github.com/Alturino/bookstore/user/otel"
	"github.com/Alturino/bookstore/user/pkg/request"
	"github.com/Alturino/bookstore/user/pkg/response"
)

const uniqueViolation = "23505"

type UserService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	config  config.Application
}

func NewUserService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	config config.Application,
) *UserService {
	return &UserService{pool: pool, queries: queries, config: config}
}

// Register creates the user and their shopping cart in one transaction so
// every user always has a cart.
func (s UserService) Register(
	c context.Context,
	param request.Register,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Info().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	defer s.rollback(c, tx, span)
	logger.Info().Msg("initialized transaction")
	qtx := s.queries.WithTx(tx)

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := qtx.InsertUser(c, repository.InsertUserParams{
		Username: param.Username,
		Email:    param.Email,
		Password: string(hashed),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = inErrors.ErrEmailTaken
		}
		err = fmt.Errorf("failed inserting user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	logger = logger.With().Str(log.KeyProcess, "inserting cart").Logger()
	logger.Info().Msg("inserting cart")
	if _, err = qtx.InsertCart(c, user.ID); err != nil {
		err = fmt.Errorf("failed inserting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("inserted cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("committed transaction")

	return user.Response(), nil
}

func (s UserService) Login(c context.Context, param request.Login) (string, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := s.queries.FindUserByEmail(c, param.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrUserNotFound
		}
		err = fmt.Errorf("failed finding user by email=%s with error=%w", param.Email, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("found user")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Info().Msg("verifying password")
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password))
	if err != nil {
		err = fmt.Errorf(
			"failed verifying password with error=%w",
			inErrors.ErrPasswordMismatch,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "creating token").Logger()
	logger.Info().Msg("creating token")
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    constants.AppName,
		Subject:   user.ID.String(),
		Audience:  jwt.ClaimStrings{constants.AudienceUser},
		ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.SecretKey))
	if err != nil {
		err = fmt.Errorf("failed creating token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("created token")

	return token, nil
}

func (s UserService) rollback(c context.Context, tx pgx.Tx, span trace.Span) {
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
