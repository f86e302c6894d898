package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered account with its simulated cash balance
type User struct {
	Id           string          `db:"id"`
	Email        string          `db:"email"`
	PasswordHash string          `db:"password_hash"`
	Balance      decimal.Decimal `db:"balance"`
	Version      int64           `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Holding represents the current owned quantity of one coin (hot data)
type Holding struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Coin      string          `db:"coin"`
	Amount    decimal.Decimal `db:"amount"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Trade represents immutable trade history (cold data).
// Rows are only ever inserted, never updated or deleted.
type Trade struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Coin      string          `db:"coin"`
	Amount    decimal.Decimal `db:"amount"`
	UsdValue  decimal.Decimal `db:"usd_value"`
	Type      string          `db:"type"`
	CreatedAt time.Time       `db:"created_at"`
}

// Session represents a browser session resolved from the session_token cookie
type Session struct {
	Token     string    `db:"token"`
	UserId    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
