package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultEnhancedBaseURL is the Helius enhanced transactions API.
const DefaultEnhancedBaseURL = "https://api.helius.xyz"

// EnhancedClient fetches provider-enriched transaction history. The
// enrichment classifies each transaction (SWAP, TRANSFER, CREATE) and names
// the protocol it went through, which raw RPC history does not.
type EnhancedClient interface {
	// AddressTransactions retrieves enriched transactions for an address,
	// newest first.
	AddressTransactions(ctx context.Context, address string, limit int) ([]EnhancedTransaction, error)
}

// EnhancedTransaction is one enriched history entry.
type EnhancedTransaction struct {
	Signature string `json:"signature"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	FeePayer  string `json:"feePayer"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// RESTEnhancedClient implements EnhancedClient against the Helius REST API.
type RESTEnhancedClient struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewEnhancedClient creates an enhanced transactions client.
func NewEnhancedClient(baseURL, apiKey string) *RESTEnhancedClient {
	if baseURL == "" {
		baseURL = DefaultEnhancedBaseURL
	}
	return &RESTEnhancedClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
}

// Compile-time interface check.
var _ EnhancedClient = (*RESTEnhancedClient)(nil)

// AddressTransactions retrieves enriched transactions for an address,
// newest first.
func (c *RESTEnhancedClient) AddressTransactions(ctx context.Context, address string, limit int) ([]EnhancedTransaction, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?api-key=%s&limit=%d",
		c.baseURL, url.PathEscape(address), url.QueryEscape(c.apiKey), limit)

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > DefaultMaxDelay {
				delay = DefaultMaxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

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
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var txs []EnhancedTransaction
		if err := json.Unmarshal(body, &txs); err != nil {
			return nil, fmt.Errorf("unmarshal transactions: %w", err)
		}
		return txs, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// APIKeyFromEndpoint extracts the provider api-key query parameter from an
// RPC endpoint URL. Returns empty when the endpoint carries none.
func APIKeyFromEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Query().Get("api-key")
}
