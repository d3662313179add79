// Package lolapi resolves free-text summoner handles against the League of
// Legends stats service (summoner by-name endpoint).
package lolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
	"github.com/torneiomaker/messenger-bot/internal/metrics"
)

const (
	summonerByNamePath = "/summoner/by-name/"
	maxErrorBodyLen    = 2048
	userAgent          = "torneio-maker-bot/1.0"
)

// Summoner is one record of the by-name response.
type Summoner struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
	RevisionDate  int64  `json:"revisionDate"`
}

// Result is the outcome of a lookup. Found is false when the service has no
// summoner for the handle; Name is the canonical name otherwise.
type Result struct {
	Found    bool
	Name     string
	Summoner Summoner
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics // optional
}

// Client queries the stats service. Concurrent lookups of the same
// normalized handle share one outbound request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	metrics    *metrics.Metrics
	group      singleflight.Group
}

// NewClient creates a stats lookup client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
	}
}

// Normalize returns the lookup key for a handle: NFC form with every
// whitespace rune removed.
func Normalize(handle string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, norm.NFC.String(handle))
}

// Resolve looks up handle. A handle that normalizes to the empty string is
// NotFound without any outbound call. Transport failures and unexpected
// statuses are returned as *errors.GatewayError.
func (c *Client) Resolve(ctx context.Context, handle string) (Result, error) {
	key := Normalize(handle)
	if key == "" {
		c.record("not_found", 0)
		return Result{}, nil
	}

	start := time.Now()
	v, err, shared := c.group.Do(key, func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return c.fetch(ctx, key)
	})
	if shared && c.metrics != nil {
		c.metrics.RecordSingleflightDedup("lolapi")
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.record("error", elapsed)
		return Result{}, err
	}
	result := v.(Result)
	if result.Found {
		c.record("found", elapsed)
	} else {
		c.record("not_found", elapsed)
	}
	return result, nil
}

func (c *Client) fetch(ctx context.Context, key string) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + summonerByNamePath + url.PathEscape(key)
	query := url.Values{"api_key": {c.apiKey}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return Result{}, domerrors.NewGatewayError("summoner lookup", endpoint, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, domerrors.NewGatewayError("summoner lookup", endpoint, 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return Result{}, domerrors.NewGatewayError("summoner lookup", endpoint, resp.StatusCode, string(raw), nil)
	}

	var records map[string]Summoner
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return Result{}, domerrors.NewGatewayError("summoner lookup", endpoint, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}

	// The service keys records by the lowercased handle.
	record, ok := records[key]
	if !ok {
		record, ok = records[strings.ToLower(key)]
	}
	if !ok || record.Name == "" {
		return Result{}, nil
	}
	return Result{Found: true, Name: record.Name, Summoner: record}, nil
}

func (c *Client) record(result string, duration float64) {
	if c.metrics != nil {
		c.metrics.RecordStatsLookup(result, duration)
	}
}
