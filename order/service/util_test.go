package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/bookstore/internal/repository"
)

type (
	setupFunc    func(context.Context, ...string) (*redis.Client, *pgxpool.Pool, *postgres.PostgresContainer, *testRedis.RedisContainer, *repository.Queries, *OrderService)
	teardownFunc func(*redis.Client, *pgxpool.Pool, *postgres.PostgresContainer, *testRedis.RedisContainer)
)

func migrationPaths() []string {
	migrationDir := filepath.Join("..", "..", "..", "migrations")
	return []string{
		filepath.Join(migrationDir, "20250712101500_create_table_users.up.sql"),
		filepath.Join(migrationDir, "20250712101600_create_table_books.up.sql"),
		filepath.Join(migrationDir, "20250712101700_create_table_shopping_carts.up.sql"),
		filepath.Join(migrationDir, "20250712101800_create_table_cart_items.up.sql"),
		filepath.Join(migrationDir, "20250712101900_create_table_orders.up.sql"),
		filepath.Join(migrationDir, "20250712102000_create_table_order_items.up.sql"),
	}
}

func setup(t *testing.T) setupFunc {
	return func(c context.Context, seedPaths ...string) (*redis.Client, *pgxpool.Pool, *postgres.PostgresContainer, *testRedis.RedisContainer, *repository.Queries, *OrderService) {
		pgContainer, err := postgres.Run(
			c,
			"postgres:16.6-alpine3.21",
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_DB":       "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_PORT":     "5432",
				"POSTGRES_USER":     "postgres",
			}),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("postgres"),
			postgres.BasicWaitStrategies(),
			postgres.WithInitScripts(append(migrationPaths(), seedPaths...)...),
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

		redisContainer, err := testRedis.Run(
			c,
			"redis:7.4.2-alpine3.21",
			testRedis.WithLogLevel(testRedis.LogLevelVerbose),
		)
		if err != nil {
			t.Fatalf("failed running redis container with error: %s", err)
		}

		redisConnStr, err := redisContainer.ConnectionString(c)
		if err != nil {
			t.Fatalf("failed getting redis connection string with error: %s", err)
		}

		redisOpt, err := redis.ParseURL(redisConnStr)
		if err != nil {
			t.Fatalf("failed parsing redis connection string with error: %s", err)
		}

		redisClient := redis.NewClient(redisOpt)
		if err = redisClient.Ping(c).Err(); err != nil {
			t.Fatalf("failed ping redis client with error: %s", err)
		}

		queries := repository.New(pool)
		orderService := NewOrderService(pool, queries, redisClient)
		return redisClient, pool, pgContainer, redisContainer, queries, orderService
	}
}

func teardown(t *testing.T) teardownFunc {
	return func(redis *redis.Client, pool *pgxpool.Pool, pgContainer *postgres.PostgresContainer, redisContainer *testRedis.RedisContainer) {
		redis.Close()
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
}
