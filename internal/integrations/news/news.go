// Package news reads a market-news RSS feed and pulls out the tickers the
// headlines are about. The planner uses them as market context.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// DefaultTickers is the fallback when the feed yields nothing.
var DefaultTickers = []string{"VOO", "QQQ", "AAPL", "TSLA", "GLD", "BND"}

// Only the first items of the feed are considered.
const maxItems = 30

// Client handles integration with a market news RSS feed
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new news client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.NewsFeedURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// RelatedTickers returns up to limit distinct tickers mentioned by recent
// headlines, in feed order.
func (c *Client) RelatedTickers(ctx context.Context, limit int) ([]string, error) {
	body, err := c.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	tickers, err := c.parseFeed(body, limit)
	if err != nil {
		return nil, err
	}

	c.log.WithField("tickers", tickers).Info("Retrieved tickers from news feed")
	return tickers, nil
}

// fetchFeed downloads the raw RSS document
func (c *Client) fetchFeed(ctx context.Context) ([]byte, error) {
	if c.url == "" {
		return nil, fmt.Errorf("news feed URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("News feed XML response: %d bytes", len(body))
	return body, nil
}

// parseFeed collects ticker-like <category> values from the feed items
func (c *Client) parseFeed(rawBody []byte, limit int) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	items := doc.FindElements("//channel/item")
	if len(items) == 0 {
		return nil, fmt.Errorf("no items found in feed")
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, item := range items {
		for _, category := range item.SelectElements("category") {
			for _, candidate := range strings.Split(category.Text(), ",") {
				ticker := strings.TrimSpace(candidate)
				if !isTicker(ticker) || seen[ticker] {
					continue
				}
				seen[ticker] = true
				tickers = append(tickers, ticker)
				if limit > 0 && len(tickers) == limit {
					return tickers, nil
				}
			}
		}
	}

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found in feed")
	}
	return tickers, nil
}

// isTicker accepts short upper-case symbols without an exchange suffix
func isTicker(s string) bool {
	if s == "" || len(s) > 5 || strings.Contains(s, ".") {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
