package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// UpstreamQuote is one entry of the CoinGecko simple-price response. Both
// fields may be absent for a coin the upstream does not know.
type UpstreamQuote struct {
	USD       *decimal.Decimal `json:"usd"`
	Change24h *float64         `json:"usd_24h_change"`
}

// Client fetches spot prices from the CoinGecko simple-price endpoint.
type Client struct {
	baseURL    string
	httpClient http.Client
}

func NewClient(cfg models.PriceFeedConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("price feed base URL cannot be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("price fetch timeout must be positive, got %v", cfg.FetchTimeout)
	}

	httpClient, err := createCustomHttpClient(cfg.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// FetchPrices requests USD prices plus 24h change for the given CoinGecko
// identifiers. A non-2xx status or transport error fails the whole call; a
// coin missing from the response body does not.
func (c *Client) FetchPrices(ctx context.Context, ids []string) (map[string]UpstreamQuote, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no coin identifiers provided")
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	requestURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("price api returned status %d", resp.StatusCode)
	}

	var quotes map[string]UpstreamQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("unable to decode price response: %w", err)
	}

	zap.L().Debug("Fetched upstream prices", zap.Int("requested", len(ids)), zap.Int("returned", len(quotes)))
	return quotes, nil
}
