package postgres

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds Postgres pool configuration.
type ClientConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// WithDSN sets the connection string.
func WithDSN(dsn string) ClientOption {
	return func(c *ClientConfig) {
		c.DSN = dsn
	}
}

// WithPool sets pool bounds.
func WithPool(maxConns, minConns int32) ClientOption {
	return func(c *ClientConfig) {
		c.MaxConns = maxConns
		c.MinConns = minConns
	}
}

// WithLifetimes sets idle and total connection lifetimes.
func WithLifetimes(idle, total time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.MaxConnIdleTime = idle
		c.MaxConnLifetime = total
	}
}

// WithConnectTimeout bounds pool creation and the startup ping.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnectTimeout = d
	}
}
