package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chartfeed/chartfeed/internal/normalize"
	"github.com/chartfeed/chartfeed/internal/platform/httpclient"
	"github.com/chartfeed/chartfeed/models"
)

// Client fetches raw historical bars for a symbol from a remote seed
// endpoint at startup. The response body may be any shape the normalizer
// accepts; the caller falls back to file or synthetic data on error.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	norm    *normalize.Normalizer
	logger  zerolog.Logger
}

// Options configures a seed client.
type Options struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// New creates a seed client.
func New(opts Options) *Client {
	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		http: httpclient.New(httpclient.Options{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
		}),
		norm:   normalize.New(),
		logger: log.With().Str("component", "seed_client").Logger(),
	}
}

// Fetch downloads and normalizes one symbol's raw series.
func (c *Client) Fetch(ctx context.Context, symbol string) ([]models.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("seed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	bars := c.norm.Series(raw)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable bars in seed response for %s", symbol)
	}
	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched seed bars")
	return bars, nil
}
