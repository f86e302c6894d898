package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"paper-trading-go/internal/database"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/prices"
	"paper-trading-go/internal/trading"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService    *database.Service
	Coins        []models.Coin
	PriceCache   *prices.Cache
	TradeService *trading.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	coins, err := LoadCoinConfig(cfg.PriceFeed.CoinsFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	zap.L().Info("Loaded supported coin set", zap.Int("count", len(coins)))

	priceClient, err := prices.NewClient(cfg.PriceFeed)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	priceCache := prices.NewCache(coins, priceClient, cfg.PriceFeed.CacheTTL)
	tradeService := trading.NewService(priceCache, dbService, coins)

	return &Services{
		DbService:    dbService,
		Coins:        coins,
		PriceCache:   priceCache,
		TradeService: tradeService,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without the
// price feed. Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// StartingBalance parses the configured starting balance.
func StartingBalance(cfg *models.Config) (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(cfg.Trading.StartingBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid STARTING_BALANCE %q: %w", cfg.Trading.StartingBalance, err)
	}
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("STARTING_BALANCE cannot be negative: %s", cfg.Trading.StartingBalance)
	}
	return balance, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
