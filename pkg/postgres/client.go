package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client manages a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient creates the pool and pings the server.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg, err := poolConfig(opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnConfig.ConnectTimeout+time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &Client{pool: p}, nil
}

func poolConfig(opts ...ClientOption) (*pgxpool.Config, error) {
	c := &ClientConfig{
		MaxConns:        20,
		MinConns:        2,
		MaxConnIdleTime: 30 * time.Second,
		MaxConnLifetime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = c.MaxConns
	cfg.MinConns = c.MinConns
	cfg.MaxConnIdleTime = c.MaxConnIdleTime
	cfg.MaxConnLifetime = c.MaxConnLifetime
	cfg.ConnConfig.ConnectTimeout = c.ConnectTimeout
	return cfg, nil
}

// Pool returns the underlying pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the pool.
func (c *Client) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}
