package models

// RegisterRequest is the POST /register body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the POST /login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TradeRequest is the POST /trades body
type TradeRequest struct {
	Coin string  `json:"coin"`
	Type string  `json:"type"`
	Usd  float64 `json:"usd"`
}

// PriceItem is one element of the GET /prices response, in coin-set order
type PriceItem struct {
	Id        string   `json:"id"`
	Symbol    string   `json:"symbol"`
	Price     *float64 `json:"price"`
	Change24h *float64 `json:"change_24h"`
}

// HoldingItem is one element of the portfolio holdings list
type HoldingItem struct {
	Coin   string  `json:"coin"`
	Amount float64 `json:"amount"`
}

// PortfolioResponse is the GET /portfolio response. Valuation is left to the
// caller, which multiplies holdings by the live prices.
type PortfolioResponse struct {
	Balance  float64       `json:"balance"`
	Holdings []HoldingItem `json:"holdings"`
}

// TradeItem is one element of the GET /trades response, newest first
type TradeItem struct {
	Id        string  `json:"id"`
	Coin      string  `json:"coin"`
	Amount    float64 `json:"amount"`
	UsdValue  float64 `json:"usdValue"`
	Type      string  `json:"type"`
	CreatedAt string  `json:"createdAt"`
}

// MessageResponse is the generic success body
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the generic failure body
type ErrorResponse struct {
	Error string `json:"error"`
}
