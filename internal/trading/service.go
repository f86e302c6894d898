package trading

import (
	"context"
	"errors"
	"fmt"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for trade validation.
var (
	ErrUnsupportedCoin = errors.New("unsupported coin")
	ErrInvalidAmount   = errors.New("trade amount must be positive")
	ErrInvalidSide     = errors.New("trade type must be buy or sell")
)

// maxCommitAttempts bounds retries when a concurrent trade for the same user
// wins the version check first.
const maxCommitAttempts = 3

// QuoteSource resolves the current unit price for a coin symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TradeStore is the slice of the ledger the executor needs.
type TradeStore interface {
	ExecuteTrade(ctx context.Context, params store.TradeParams) (*models.Trade, error)
}

// Service is the trade executor: it validates a request, resolves the current
// price, derives the coin quantity and drives the atomic ledger commit.
type Service struct {
	quotes    QuoteSource
	store     TradeStore
	supported map[string]struct{}
}

func NewService(quotes QuoteSource, tradeStore TradeStore, coins []models.Coin) *Service {
	supported := make(map[string]struct{}, len(coins))
	for _, coin := range coins {
		supported[coin.Symbol] = struct{}{}
	}

	return &Service{
		quotes:    quotes,
		store:     tradeStore,
		supported: supported,
	}
}

// Execute runs one simulated trade for the user. No state is mutated on any
// failure path; trade execution never falls back to a stale or guessed price.
func (s *Service) Execute(ctx context.Context, userId, coin string, side store.TradeSide, usd decimal.Decimal) (*models.Trade, error) {
	if usd.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if side != store.SideBuy && side != store.SideSell {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if _, ok := s.supported[coin]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCoin, coin)
	}

	unitPrice, err := s.quotes.Quote(ctx, coin)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price for %s: %w", coin, err)
	}

	quantity := usd.Div(unitPrice)

	params := store.TradeParams{
		UserId:   userId,
		Coin:     coin,
		Side:     side,
		Quantity: quantity,
		UsdValue: usd,
	}

	var trade *models.Trade
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		trade, err = s.store.ExecuteTrade(ctx, params)
		if err == nil {
			return trade, nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}

		zap.L().Warn("Trade commit lost version race, retrying",
			zap.String("user_id", userId),
			zap.String("coin", coin),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("trade commit failed after %d attempts: %w", maxCommitAttempts, err)
}
