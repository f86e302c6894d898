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

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/prices"
	"paper-trading-go/internal/store"
	"paper-trading-go/internal/trading"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Server exposes the JSON endpoints the browser polls: prices, portfolio and
// trade history reads plus trade, registration and session writes.
type Server struct {
	addr            string
	ledger          store.LedgerStore
	cache           *prices.Cache
	trader          *trading.Service
	session         models.SessionConfig
	startingBalance decimal.Decimal
	shutdownTimeout time.Duration
}

type ServerConfig struct {
	Addr            string
	Ledger          store.LedgerStore
	Cache           *prices.Cache
	Trader          *trading.Service
	Session         models.SessionConfig
	StartingBalance decimal.Decimal
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		addr:            cfg.Addr,
		ledger:          cfg.Ledger,
		cache:           cfg.Cache,
		trader:          cfg.Trader,
		session:         cfg.Session,
		startingBalance: cfg.StartingBalance,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices", s.handlePrices)
	mux.HandleFunc("GET /portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /trades", s.handleListTrades)
	mux.HandleFunc("POST /trades", s.handleCreateTrade)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled. A background ticker purges expired session rows.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.sessionCleanupLoop(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("Server shutdown error", zap.Error(err))
		}
	}()

	zap.L().Info("API server listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sessionCleanupLoop(ctx context.Context) {
	if s.session.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.session.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ledger.DeleteExpiredSessions(ctx); err != nil {
				zap.L().Warn("Session cleanup failed", zap.Error(err))
			}
		}
	}
}
