package common

import (
	"fmt"
	"os"
	"path/filepath"

	"paper-trading-go/internal/models"

	"gopkg.in/yaml.v2"
)

type CoinsConfig struct {
	Coins []models.Coin `yaml:"coins"`
}

// DefaultCoins is the built-in supported coin set, used when no coins file is
// present next to the binary.
var DefaultCoins = []models.Coin{
	{Symbol: "BTC", Id: "bitcoin"},
	{Symbol: "ETH", Id: "ethereum"},
	{Symbol: "USDT", Id: "tether"},
	{Symbol: "USDC", Id: "usd-coin"},
	{Symbol: "XMR", Id: "monero"},
	{Symbol: "SOL", Id: "solana"},
}

// LoadCoinConfig reads the supported coin set from a YAML file. A missing
// file falls back to DefaultCoins; a malformed one is an error.
func LoadCoinConfig(coinsFile string) ([]models.Coin, error) {
	var coinsPath string
	if filepath.IsAbs(coinsFile) {
		coinsPath = coinsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		coinsPath = filepath.Join(wd, coinsFile)
	}

	data, err := os.ReadFile(coinsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCoins, nil
		}
		return nil, fmt.Errorf("unable to read %s: %w", coinsFile, err)
	}

	var config CoinsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", coinsFile, err)
	}

	if len(config.Coins) == 0 {
		return nil, fmt.Errorf("%s contains no coins", coinsFile)
	}
	for i, coin := range config.Coins {
		if coin.Symbol == "" {
			return nil, fmt.Errorf("coin at index %d missing symbol", i)
		}
		if coin.Id == "" {
			return nil, fmt.Errorf("coin at index %d missing id", i)
		}
	}

	return config.Coins, nil
}
