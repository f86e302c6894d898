package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"paper-trading-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A fresh :memory: database is created per connection, so the pool must
	// stay on a single one.
	db.SetMaxOpenConns(1)

	service := &Service{db: db}

	// Use the actual schema initialization
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

type testUser struct {
	UserId string
}

func createTestUser(t *testing.T, service *Service, email string) testUser {
	t.Helper()

	user, err := service.CreateUser(context.Background(), "user-"+email, email, "hash", decimal.NewFromInt(10000))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	return testUser{UserId: user.Id}
}

func TestExecuteTrade_BuyThenSellRoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "roundtrip@example.com")

	// Buy $100 of BTC at a $50,000 unit price -> 0.002 BTC.
	buy, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "BTC",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromFloat(0.002),
		UsdValue: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade buy failed: %v", err)
	}

	if buy.Type != "buy" {
		t.Errorf("Expected trade type buy, got %s", buy.Type)
	}
	if !buy.Amount.Equal(decimal.NewFromFloat(0.002)) {
		t.Errorf("Expected trade amount 0.002, got %s", buy.Amount.String())
	}
	if !buy.UsdValue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected trade usd value 100, got %s", buy.UsdValue.String())
	}

	user, err := service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(9900)) {
		t.Errorf("Expected balance 9900 after buy, got %s", user.Balance.String())
	}

	holding, err := service.GetHolding(ctx, p.UserId, "BTC")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding == nil {
		t.Fatal("Expected holding after buy, got nil")
	}
	if !holding.Amount.Equal(decimal.NewFromFloat(0.002)) {
		t.Errorf("Expected holding 0.002, got %s", holding.Amount.String())
	}

	// Sell the full 0.002 BTC back at the same price.
	sell, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "BTC",
		Side:     store.SideSell,
		Quantity: decimal.NewFromFloat(0.002),
		UsdValue: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade sell failed: %v", err)
	}
	if sell.Type != "sell" {
		t.Errorf("Expected trade type sell, got %s", sell.Type)
	}

	user, err = service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected balance restored to 10000, got %s", user.Balance.String())
	}

	// The drained holding must be gone, not present with zero quantity.
	holding, err = service.GetHolding(ctx, p.UserId, "BTC")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding != nil {
		t.Errorf("Expected holding removed after full sell, got amount %s", holding.Amount.String())
	}

	trades, err := service.GetRecentTrades(ctx, p.UserId, 10)
	if err != nil {
		t.Fatalf("GetRecentTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trade records, got %d", len(trades))
	}
	// Newest first.
	if trades[0].Type != "sell" || trades[1].Type != "buy" {
		t.Errorf("Expected [sell, buy] ordering, got [%s, %s]", trades[0].Type, trades[1].Type)
	}
}

func TestExecuteTrade_BuyIncrementsExistingHolding(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "increment@example.com")

	for i := 0; i < 2; i++ {
		_, err := service.ExecuteTrade(ctx, store.TradeParams{
			UserId:   p.UserId,
			Coin:     "ETH",
			Side:     store.SideBuy,
			Quantity: decimal.NewFromFloat(0.5),
			UsdValue: decimal.NewFromInt(1000),
		})
		if err != nil {
			t.Fatalf("ExecuteTrade buy %d failed: %v", i, err)
		}
	}

	holding, err := service.GetHolding(ctx, p.UserId, "ETH")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding == nil {
		t.Fatal("Expected holding, got nil")
	}
	if !holding.Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected holding 1, got %s", holding.Amount.String())
	}

	user, err := service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("Expected balance 8000, got %s", user.Balance.String())
	}
}

func TestExecuteTrade_PartialSellKeepsHolding(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "partial@example.com")

	_, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "SOL",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromInt(10),
		UsdValue: decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade buy failed: %v", err)
	}

	_, err = service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "SOL",
		Side:     store.SideSell,
		Quantity: decimal.NewFromInt(4),
		UsdValue: decimal.NewFromInt(800),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade sell failed: %v", err)
	}

	holding, err := service.GetHolding(ctx, p.UserId, "SOL")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding == nil {
		t.Fatal("Expected holding to remain after partial sell")
	}
	if !holding.Amount.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Expected remaining holding 6, got %s", holding.Amount.String())
	}

	user, err := service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(8800)) {
		t.Errorf("Expected balance 8800, got %s", user.Balance.String())
	}
}

func TestExecuteTrade_InsufficientBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "poor@example.com")

	_, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "BTC",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromFloat(0.5),
		UsdValue: decimal.NewFromInt(25000),
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got: %v", err)
	}

	// Nothing may have been mutated.
	user, err := service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected untouched balance 10000, got %s", user.Balance.String())
	}

	holding, err := service.GetHolding(ctx, p.UserId, "BTC")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding != nil {
		t.Error("Expected no holding after rejected buy")
	}

	trades, err := service.GetRecentTrades(ctx, p.UserId, 10)
	if err != nil {
		t.Fatalf("GetRecentTrades failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("Expected no trade records after rejected buy, got %d", len(trades))
	}
}

func TestExecuteTrade_InsufficientHoldings(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "nothing@example.com")

	// No holding at all.
	_, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "XMR",
		Side:     store.SideSell,
		Quantity: decimal.NewFromInt(1),
		UsdValue: decimal.NewFromInt(150),
	})
	if !errors.Is(err, store.ErrInsufficientHoldings) {
		t.Fatalf("Expected ErrInsufficientHoldings, got: %v", err)
	}

	// Holding smaller than the requested quantity.
	_, err = service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "XMR",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromInt(2),
		UsdValue: decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade buy failed: %v", err)
	}

	_, err = service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "XMR",
		Side:     store.SideSell,
		Quantity: decimal.NewFromInt(3),
		UsdValue: decimal.NewFromInt(450),
	})
	if !errors.Is(err, store.ErrInsufficientHoldings) {
		t.Fatalf("Expected ErrInsufficientHoldings, got: %v", err)
	}

	// The rejected sell must not have touched balance or holding.
	user, err := service.GetUserById(ctx, p.UserId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(9700)) {
		t.Errorf("Expected balance 9700, got %s", user.Balance.String())
	}

	holding, err := service.GetHolding(ctx, p.UserId, "XMR")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if holding == nil || !holding.Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected untouched holding of 2, got %+v", holding)
	}
}

func TestExecuteTrade_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.ExecuteTrade(context.Background(), store.TradeParams{
		UserId:   "nobody",
		Coin:     "BTC",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromInt(1),
		UsdValue: decimal.NewFromInt(1),
	})
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestExecuteTrade_StaleVersionConflict(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "race@example.com")

	_, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "BTC",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromInt(1),
		UsdValue: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade buy failed: %v", err)
	}

	holding, err := service.GetHolding(ctx, p.UserId, "BTC")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}

	tx, err := service.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	defer tx.Rollback()

	// A stale version must lose the CAS and surface the conflict sentinel.
	err = service.updateHoldingAmount(ctx, tx, holding.Id, decimal.NewFromInt(2), holding.Version+1)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification for stale version, got: %v", err)
	}
}

func TestExecuteTrade_DuplicateHoldingInsertConflict(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "duprow@example.com")

	_, err := service.ExecuteTrade(ctx, store.TradeParams{
		UserId:   p.UserId,
		Coin:     "BTC",
		Side:     store.SideBuy,
		Quantity: decimal.NewFromInt(1),
		UsdValue: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade buy failed: %v", err)
	}

	tx, err := service.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	defer tx.Rollback()

	// Mirrors the interleaving where another trade created the row after our
	// read saw none: the unique constraint loss must map to the retryable
	// conflict sentinel, not a generic failure.
	err = service.insertHolding(ctx, tx, p.UserId, "BTC", decimal.NewFromInt(1))
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification for duplicate holding insert, got: %v", err)
	}
}

func TestGetRecentTrades_LimitsResults(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "many@example.com")

	for i := 0; i < 12; i++ {
		_, err := service.ExecuteTrade(ctx, store.TradeParams{
			UserId:   p.UserId,
			Coin:     "USDT",
			Side:     store.SideBuy,
			Quantity: decimal.NewFromInt(1),
			UsdValue: decimal.NewFromInt(1),
		})
		if err != nil {
			t.Fatalf("ExecuteTrade %d failed: %v", i, err)
		}
	}

	trades, err := service.GetRecentTrades(ctx, p.UserId, 10)
	if err != nil {
		t.Fatalf("GetRecentTrades failed: %v", err)
	}
	if len(trades) != 10 {
		t.Errorf("Expected 10 trades, got %d", len(trades))
	}
}
