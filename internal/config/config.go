/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"paper-trading-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := getEnvDuration("PRICE_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	// Matches the 30s client polling interval, so each poll cycle performs at
	// most one upstream call.
	cacheTTL, err := getEnvDuration("PRICE_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := getEnvDuration("SESSION_CLEANUP_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "papertrade.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
		},
		PriceFeed: models.PriceFeedConfig{
			BaseURL:      getEnvString("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			FetchTimeout: fetchTimeout,
			CacheTTL:     cacheTTL,
			CoinsFile:    getEnvString("COINS_FILE", "coins.yaml"),
		},
		Session: models.SessionConfig{
			TTL:             sessionTTL,
			CleanupInterval: cleanupInterval,
		},
		Trading: models.TradingConfig{
			StartingBalance: getEnvString("STARTING_BALANCE", "10000"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
