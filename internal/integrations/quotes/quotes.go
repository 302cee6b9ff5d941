// Package quotes fetches live market quotes from Finnhub and keeps them in
// a short-lived in-memory cache.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/sirupsen/logrus"
)

// Symbols the planner usually suggests; anything else is fetched as is.
var knownSymbols = map[string]bool{
	"GLD": true, "VOO": true, "QQQ": true, "VXUS": true, "BND": true, "ARKK": true,
	"AAPL": true, "TSLA": true, "MSFT": true, "SHY": true, "BIL": true,
}

type cachedQuote struct {
	quote   models.Quote
	expires time.Time
}

// Client handles integration with the Finnhub quote API
type Client struct {
	baseURL string
	apiKey  string
	ttl     time.Duration
	client  *http.Client
	log     *logrus.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewClient initializes a new quote client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.FinnhubURL, "/"),
		apiKey:  cfg.FinnhubAPIKey,
		ttl:     cfg.QuoteCacheTTL,
		client: &http.Client{
			Timeout: cfg.QuoteTimeout,
		},
		log:   log,
		now:   time.Now,
		cache: make(map[string]cachedQuote),
	}
}

// Quote returns the latest quote for one symbol, from cache when fresh.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", models.ErrQuoteUnavailable)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("FINNHUB_API_KEY is not configured: %w", models.ErrQuoteUnavailable)
	}

	if q, ok := c.cached(symbol); ok {
		return &q, nil
	}

	c.log.WithField("symbol", symbol).Debug("Quote cache miss")
	if !strings.Contains(symbol, ":") && !knownSymbols[symbol] {
		c.log.WithField("symbol", symbol).Warn("Unrecognized symbol, fetching as is")
	}

	q, err := c.fetch(ctx, symbol)
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Error("Failed to fetch quote")
		return nil, fmt.Errorf("%s: %w: %v", symbol, models.ErrQuoteUnavailable, err)
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: *q, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return q, nil
}

// Quotes looks up several symbols concurrently. A failing symbol is
// reported in its own entry and does not fail the batch.
func (c *Client) Quotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	results := make(map[string]models.QuoteResult, len(symbols))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		symbol := normalizeSymbol(s)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			var res models.QuoteResult
			if q, err := c.Quote(ctx, symbol); err != nil {
				res.Error = "quote_unavailable"
			} else {
				res.Quote = q
			}
			mu.Lock()
			results[symbol] = res
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return results
}

// Prune drops expired cache entries and reports how many were removed.
func (c *Client) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for symbol, entry := range c.cache {
		if !now.Before(entry.expires) {
			delete(c.cache, symbol)
			removed++
		}
	}
	return removed
}

func (c *Client) cached(symbol string) (models.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[symbol]
	if !ok || !c.now().Before(entry.expires) {
		return models.Quote{}, false
	}
	return entry.quote, true
}

func (c *Client) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var quote models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	// Finnhub answers unknown symbols with an all-zero quote
	if quote.Current.IsZero() && quote.Timestamp == 0 {
		return nil, fmt.Errorf("no data for symbol")
	}
	quote.Symbol = symbol
	return &quote, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
