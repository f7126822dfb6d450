// Package geo looks up a visitor's currency from their IP address and
// converts prices between currencies. Both lookups are cached.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/pkg/cache"
)

const (
	geoTTL = 24 * time.Hour
	fxTTL  = time.Hour
)

// ErrUnknownCurrency is returned when no rate exists for a currency pair.
var ErrUnknownCurrency = errors.New("unknown currency")

// Locator resolves an IP address to an ISO 4217 currency code.
type Locator interface {
	Currency(ctx context.Context, ip string) (string, error)
}

// RateSource returns the exchange rate from one currency to another.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Client implements Locator against an ipapi.co style endpoint
// (GET {base}/{ip}/json/) and RateSource against an open.er-api.com style
// endpoint (GET {base}/{currency}).
type Client struct {
	geoURL string
	fxURL  string
	http   *http.Client
	cache  cache.Cache
	logger *zap.Logger
}

// NewClient builds a Client. A nil cache disables caching.
func NewClient(geoURL, fxURL string, timeout time.Duration, c cache.Cache, logger *zap.Logger) *Client {
	if c == nil {
		c = cache.Noop{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		geoURL: strings.TrimRight(geoURL, "/"),
		fxURL:  strings.TrimRight(fxURL, "/"),
		http:   &http.Client{Timeout: timeout},
		cache:  c,
		logger: logger,
	}
}

type geoResponse struct {
	Currency    string `json:"currency"`
	CountryCode string `json:"country_code"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// Currency returns the local currency for ip. Private and loopback addresses
// have no location and return an error.
func (c *Client) Currency(ctx context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid IP address %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", fmt.Errorf("IP address %s is not routable", ip)
	}

	key := "geo:" + ip
	if v, err := c.cache.Get(ctx, key); err == nil && v != "" {
		return v, nil
	}

	var resp geoResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/json/", c.geoURL, ip), &resp); err != nil {
		return "", fmt.Errorf("geolocation lookup failed: %w", err)
	}
	if resp.Error {
		return "", fmt.Errorf("geolocation lookup failed: %s", resp.Reason)
	}
	currency := strings.ToUpper(resp.Currency)
	if len(currency) != 3 {
		return "", fmt.Errorf("geolocation returned no currency for %s", ip)
	}

	if err := c.cache.Set(ctx, key, currency, geoTTL); err != nil {
		c.logger.Warn("Failed to cache geolocation", zap.String("ip", ip), zap.Error(err))
	}
	return currency, nil
}

type fxResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// Rate returns how many units of to one unit of from buys.
func (c *Client) Rate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return 1, nil
	}
	rates, err := c.rates(ctx, from)
	if err != nil {
		return 0, err
	}
	r, ok := rates[to]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%s to %s: %w", from, to, ErrUnknownCurrency)
	}
	return r, nil
}

func (c *Client) rates(ctx context.Context, base string) (map[string]float64, error) {
	key := "fx:" + base
	if v, err := c.cache.Get(ctx, key); err == nil {
		var cached map[string]float64
		if json.Unmarshal([]byte(v), &cached) == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var resp fxResponse
	if err := c.getJSON(ctx, c.fxURL+"/"+base, &resp); err != nil {
		return nil, fmt.Errorf("exchange rate lookup failed: %w", err)
	}
	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("exchange rate lookup failed: result %q", resp.Result)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("exchange rate lookup returned no rates for %s", base)
	}

	if raw, err := json.Marshal(resp.Rates); err == nil {
		if err := c.cache.Set(ctx, key, string(raw), fxTTL); err != nil {
			c.logger.Warn("Failed to cache exchange rates", zap.String("base", base), zap.Error(err))
		}
	}
	return resp.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
