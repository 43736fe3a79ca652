package data

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgDbContext represents a PostgreSQL database context
type PgDbContext struct {
	*pgxpool.Pool
	connectionString string
}

// QueryRunner interface for both Pool and Tx
type QueryRunner interface {
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}

// ConnectionString points databaseUrl at databaseName when one is given.
func ConnectionString(databaseUrl, databaseName string) (string, error) {
	u, err := url.Parse(databaseUrl)
	if err != nil {
		return "", err
	}
	if databaseName != "" {
		u.Path = "/" + databaseName
	}
	return u.String(), nil
}

func NewPgDbContext(ctx context.Context, connectionString string) (*PgDbContext, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &PgDbContext{Pool: pool, connectionString: connectionString}, nil
}
