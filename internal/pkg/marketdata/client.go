package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds market feed API configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches daily price changes for market-linked plan assets.
type Client struct {
	httpClient *http.Client
	config     Config
}

type dailyChangeResponse struct {
	AssetID        string          `json:"asset_id"`
	DailyChangePct decimal.Decimal `json:"daily_change_pct"`
	AsOf           string          `json:"as_of"`
}

// NewClient creates a new market feed client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// DailyChange returns the asset's daily change as a fraction (0.031 for +3.1%).
// Callers must treat any error as "feed unavailable" and fall back to the
// plan's base rate; accrual never hard-fails on the feed.
func (c *Client) DailyChange(ctx context.Context, assetID string) (decimal.Decimal, error) {
	if strings.TrimSpace(assetID) == "" {
		return decimal.Zero, fmt.Errorf("validation error: asset_id must be non-empty")
	}
	if c == nil || c.httpClient == nil {
		return decimal.Zero, fmt.Errorf("market feed client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return decimal.Zero, fmt.Errorf("market feed config error: base_url is empty")
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := fmt.Sprintf("%s/api/v1/assets/%s/daily-change", base, assetID)

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("market feed call failed: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, fmt.Errorf("market feed call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("market feed call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("market feed returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out dailyChangeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse market feed response: %w", err)
	}

	return out.DailyChangePct, nil
}
