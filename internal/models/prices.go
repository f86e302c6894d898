package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin maps a display symbol to the stable CoinGecko identifier used upstream
type Coin struct {
	Symbol string `yaml:"symbol"`
	Id     string `yaml:"id"`
}

// PriceQuote holds the latest upstream data for one coin. Price and Change24h
// are nil when the coin was missing from the upstream response - that is a
// valid result, not an error.
type PriceQuote struct {
	Id        string
	Symbol    string
	Price     *decimal.Decimal
	Change24h *float64
}

// PriceSnapshot is the process-wide price state for the supported coin set.
// It is replaced wholesale on refresh, never partially updated.
type PriceSnapshot struct {
	Quotes    []PriceQuote
	FetchedAt time.Time
}

// Quote returns the quote for a symbol, or nil if the symbol is not part of
// the snapshot's coin set.
func (s *PriceSnapshot) Quote(symbol string) *PriceQuote {
	for i := range s.Quotes {
		if s.Quotes[i].Symbol == symbol {
			return &s.Quotes[i]
		}
	}
	return nil
}
