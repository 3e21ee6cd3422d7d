package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/bookstore/internal/config"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/repository"
	"github.com/Alturino/bookstore/user/pkg/request"
)

func setup(t *testing.T, c context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *repository.Queries, *UserService) {
	migrationDir := filepath.Join("..", "..", "..", "migrations")
	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join(migrationDir, "20250712101500_create_table_users.up.sql"),
			filepath.Join(migrationDir, "20250712101700_create_table_shopping_carts.up.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}

	pgConnStr, err := pgContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pgConfig, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		t.Fatalf("failed parsing pgconfig with error: %s", err)
	}
	pgConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	queries := repository.New(pool)
	userService := NewUserService(pool, queries, config.Application{SecretKey: "test-secret"})
	return pool, pgContainer, queries, userService
}

func teardown(t *testing.T, pool *pgxpool.Pool, pgContainer *postgres.PostgresContainer) {
	pool.Close()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		t.Fatalf("failed to terminate container: %s", err)
	}
}

func TestRegisterCreatesCart(t *testing.T) {
	c := context.Background()
	pool, pgContainer, queries, userService := setup(t, c)
	defer teardown(t, pool, pgContainer)

	user, err := userService.Register(c, request.Register{
		Username: "alice",
		Email:    "alice@mail.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	cart, err := queries.FindCartByUserId(c, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, cart.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c := context.Background()
	pool, pgContainer, _, userService := setup(t, c)
	defer teardown(t, pool, pgContainer)

	_, err := userService.Register(c, request.Register{
		Username: "alice",
		Email:    "alice@mail.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = userService.Register(c, request.Register{
		Username: "alice2",
		Email:    "alice@mail.com",
		Password: "password456",
	})
	require.ErrorIs(t, err, inErrors.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	c := context.Background()
	pool, pgContainer, _, userService := setup(t, c)
	defer teardown(t, pool, pgContainer)

	_, err := userService.Register(c, request.Register{
		Username: "alice",
		Email:    "alice@mail.com",
		Password: "password123",
	})
	require.NoError(t, err)

	token, err := userService.Login(c, request.Login{
		Email:    "alice@mail.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = userService.Login(c, request.Login{
		Email:    "alice@mail.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, inErrors.ErrPasswordMismatch)

	_, err = userService.Login(c, request.Login{
		Email:    "nobody@mail.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, inErrors.ErrUserNotFound)
}
