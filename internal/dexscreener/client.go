package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public DexScreener API.
const DefaultBaseURL = "https://api.dexscreener.com"

// MaxBatchSize is the most token addresses one pairs request accepts.
const MaxBatchSize = 30

// Default HTTP behavior.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// Client queries the DexScreener public API.
type Client interface {
	// TokenPairs retrieves trading pairs for up to MaxBatchSize token
	// addresses in one call.
	TokenPairs(ctx context.Context, addresses []string) ([]Pair, error)

	// TopBoosts retrieves currently boosted tokens on Solana.
	TopBoosts(ctx context.Context) ([]BoostedToken, error)

	// Search retrieves pairs matching a free-text query.
	Search(ctx context.Context, query string) ([]Pair, error)
}

// Pair is one trading pair as DexScreener reports it.
type Pair struct {
	ChainID       string    `json:"chainId"`
	DexID         string    `json:"dexId"`
	PairAddress   string    `json:"pairAddress"`
	BaseToken     BaseToken `json:"baseToken"`
	MarketCap     float64   `json:"marketCap"`
	FDV           float64   `json:"fdv"`
	Liquidity     Liquidity `json:"liquidity"`
	PairCreatedAt int64     `json:"pairCreatedAt"` // Unix milliseconds
}

// BaseToken identifies the traded token of a pair.
type BaseToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// Liquidity is the pooled liquidity of a pair.
type Liquidity struct {
	USD float64 `json:"usd"`
}

// BestMarketCap returns the pair's market cap, falling back to fully
// diluted valuation when market cap is not reported.
func (p *Pair) BestMarketCap() float64 {
	if p.MarketCap > 0 {
		return p.MarketCap
	}
	return p.FDV
}

// BoostedToken is one entry of the token-boosts endpoint.
type BoostedToken struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// HTTPClient implements Client against the REST API with retries.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// Option configures HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *HTTPClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// NewHTTPClient creates a DexScreener API client.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// TokenPairs retrieves trading pairs for up to MaxBatchSize token addresses.
func (c *HTTPClient) TokenPairs(ctx context.Context, addresses []string) ([]Pair, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit of %d", len(addresses), MaxBatchSize)
	}

	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, strings.Join(addresses, ","))

	var result struct {
		Pairs []Pair `json:"pairs"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.Pairs, nil
}

// TopBoosts retrieves currently boosted tokens, filtered to Solana.
func (c *HTTPClient) TopBoosts(ctx context.Context) ([]BoostedToken, error) {
	endpoint := c.baseURL + "/token-boosts/top/v1"

	var all []BoostedToken
	if err := c.get(ctx, endpoint, &all); err != nil {
		return nil, err
	}

	var solana []BoostedToken
	for _, t := range all {
		if t.ChainID == "solana" {
			solana = append(solana, t)
		}
	}
	return solana, nil
}

// Search retrieves pairs matching a free-text query.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]Pair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result struct {
		Pairs []Pair `json:"pairs"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.Pairs, nil
}

// get performs a GET with retries and exponential backoff.
func (c *HTTPClient) get(ctx context.Context, endpoint string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > DefaultMaxDelay {
				delay = DefaultMaxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
