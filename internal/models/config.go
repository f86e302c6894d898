package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	PriceFeed PriceFeedConfig
	Session   SessionConfig
	Trading   TradingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PriceFeedConfig holds upstream price API settings
type PriceFeedConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	CoinsFile    string
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// TradingConfig holds simulator settings
type TradingConfig struct {
	StartingBalance string
}
