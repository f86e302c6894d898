package store

import (
	"context"
	"errors"
	"time"

	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrDuplicateEmail         = errors.New("user already exists")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientHoldings   = errors.New("not enough holdings to sell")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrSessionNotFound        = errors.New("session not found")
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeParams contains the parameters for executing a trade. Quantity is the
// coin amount already derived from UsdValue at the current unit price.
type TradeParams struct {
	UserId   string
	Coin     string
	Side     TradeSide
	Quantity decimal.Decimal
	UsdValue decimal.Decimal
}

// CreateSessionParams contains the parameters for opening a session.
type CreateSessionParams struct {
	Token     string
	UserId    string
	ExpiresAt time.Time
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, email, passwordHash string, startingBalance decimal.Decimal) (*models.User, error)

	// --- Holdings ---
	GetHolding(ctx context.Context, userId, coin string) (*models.Holding, error)
	GetUserHoldings(ctx context.Context, userId string) ([]models.Holding, error)

	// --- Trades ---
	ExecuteTrade(ctx context.Context, params TradeParams) (*models.Trade, error)
	GetRecentTrades(ctx context.Context, userId string, limit int) ([]models.Trade, error)

	// --- Sessions ---
	CreateSession(ctx context.Context, params CreateSessionParams) (*models.Session, error)
	GetUserBySession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// --- Lifecycle ---
	Close()
}
