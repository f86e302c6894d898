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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"paper-trading-go/internal/api"
	"paper-trading-go/internal/common"
	"paper-trading-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	addrFlag := flag.String("addr", "", "Listen address override (default: SERVER_ADDR or :8080)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting paper trading server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	startingBalance, err := common.StartingBalance(cfg)
	if err != nil {
		zap.L().Fatal("Invalid starting balance", zap.Error(err))
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	server := api.NewServer(api.ServerConfig{
		Addr:            addr,
		Ledger:          services.DbService,
		Cache:           services.PriceCache,
		Trader:          services.TradeService,
		Session:         cfg.Session,
		StartingBalance: startingBalance,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// Shut down cleanly on SIGINT/SIGTERM.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		zap.L().Fatal("Server failed", zap.Error(err))
	}

	zap.L().Info("Server stopped")
}
