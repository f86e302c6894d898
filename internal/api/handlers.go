package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/prices"
	"paper-trading-go/internal/store"
	"paper-trading-go/internal/trading"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// handlePrices serves the cached snapshot for the fixed coin set, in coin-set
// order. Only a total upstream failure with an empty cache surfaces as 500.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.cache.Snapshot(r.Context())
	if err != nil {
		zap.L().Error("Price snapshot unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "price feed unavailable")
		return
	}

	items := make([]models.PriceItem, len(snapshot.Quotes))
	for i, quote := range snapshot.Quotes {
		item := models.PriceItem{Id: quote.Id, Symbol: quote.Symbol, Change24h: quote.Change24h}
		if quote.Price != nil {
			price := quote.Price.InexactFloat64()
			item.Price = &price
		}
		items[i] = item
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, items)
}

// handlePortfolio returns cash balance plus the holdings list. Valuation is
// left to the caller against the live /prices feed.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	holdings, err := s.ledger.GetUserHoldings(r.Context(), user.Id)
	if err != nil {
		zap.L().Error("Failed to load holdings", zap.String("user_id", user.Id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve portfolio")
		return
	}

	items := make([]models.HoldingItem, len(holdings))
	for i, holding := range holdings {
		items[i] = models.HoldingItem{Coin: holding.Coin, Amount: holding.Amount.InexactFloat64()}
	}

	writeJSON(w, http.StatusOK, models.PortfolioResponse{
		Balance:  user.Balance.InexactFloat64(),
		Holdings: items,
	})
}

// handleListTrades returns the newest ten trades. Unauthenticated callers get
// an empty list, not an error.
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeJSON(w, http.StatusOK, []models.TradeItem{})
		return
	}

	trades, err := s.ledger.GetRecentTrades(r.Context(), user.Id, 10)
	if err != nil {
		zap.L().Error("Failed to load trades", zap.String("user_id", user.Id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve trades")
		return
	}

	items := make([]models.TradeItem, len(trades))
	for i, trade := range trades {
		items[i] = models.TradeItem{
			Id:        trade.Id,
			Coin:      trade.Coin,
			Amount:    trade.Amount.InexactFloat64(),
			UsdValue:  trade.UsdValue.InexactFloat64(),
			Type:      trade.Type,
			CreatedAt: trade.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Coin == "" || req.Type == "" || req.Usd <= 0 {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	trade, err := s.trader.Execute(r.Context(), user.Id, req.Coin, store.TradeSide(req.Type), decimal.NewFromFloat(req.Usd))
	if err != nil {
		s.writeTradeError(w, err)
		return
	}

	message := "Buy executed"
	if trade.Type == string(store.SideSell) {
		message = "Sell executed"
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: message})
}

// writeTradeError maps executor failures onto the API taxonomy: validation
// and business-rule rejections are 4xx, upstream price failures 5xx. Internal
// error bodies are never exposed verbatim.
func (s *Server) writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trading.ErrUnsupportedCoin):
		writeError(w, http.StatusBadRequest, "Unsupported coin")
	case errors.Is(err, trading.ErrInvalidAmount), errors.Is(err, trading.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, "Missing fields")
	case errors.Is(err, store.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, store.ErrInsufficientHoldings):
		writeError(w, http.StatusBadRequest, "Not enough holdings to sell")
	case errors.Is(err, prices.ErrPriceUnavailable), errors.Is(err, prices.ErrUpstreamUnavailable):
		writeError(w, http.StatusInternalServerError, "Price unavailable")
	default:
		zap.L().Error("Trade execution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trade failed")
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	_, err = s.ledger.CreateUser(r.Context(), uuid.New().String(), req.Email, string(hash), s.startingBalance)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		zap.L().Error("Failed to create user", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "User created"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	user, err := s.ledger.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	expiresAt := time.Now().Add(s.session.TTL)
	session, err := s.ledger.CreateSession(r.Context(), store.CreateSessionParams{
		Token:     uuid.New().String(),
		UserId:    user.Id,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		zap.L().Error("Failed to create session", zap.String("user_id", user.Id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.setSessionCookie(w, session.Token, expiresAt)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged in"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.ledger.DeleteSession(r.Context(), cookie.Value); err != nil {
			zap.L().Warn("Failed to delete session", zap.Error(err))
		}
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.GetUsers(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "ok"})
}
