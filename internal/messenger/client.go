package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

const (
	userAgent       = "torneio-maker-bot/1.0"
	maxErrorBodyLen = 2048
)

// ClientConfig configures a Graph API client.
type ClientConfig struct {
	// BaseURL is the versioned Graph API root, e.g. https://graph.facebook.com/v2.6.
	BaseURL string
	// AccessToken is the page access token sent as the access_token query parameter.
	AccessToken string
	// Timeout bounds every call. Zero means no per-call timeout beyond ctx.
	Timeout time.Duration
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client calls the Send API, the user profile API and thread settings.
// It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	timeout     time.Duration
}

// NewClient creates a Graph API client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		timeout:     cfg.Timeout,
	}
}

// Send delivers one action to recipientID. Success means the call completed
// and the platform answered 200; anything else is a *errors.GatewayError.
// Send never retries.
func (c *Client) Send(ctx context.Context, recipientID string, action Action) (*SendResponse, error) {
	var resp SendResponse
	if err := c.do(ctx, "send "+string(action.Kind), http.MethodPost, "/me/messages", nil, action.Request(recipientID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FirstName fetches the first_name field of a user's public profile.
func (c *Client) FirstName(ctx context.Context, userID string) (string, error) {
	var profile struct {
		FirstName string `json:"first_name"`
	}
	query := url.Values{"fields": {"first_name"}}
	if err := c.do(ctx, "profile lookup", http.MethodGet, "/"+url.PathEscape(userID), query, nil, &profile); err != nil {
		return "", err
	}
	return profile.FirstName, nil
}

// SetThreadSettings registers a get started button, greeting or persistent menu.
func (c *Client) SetThreadSettings(ctx context.Context, setting ThreadSetting) error {
	return c.do(ctx, "thread settings "+setting.SettingType, http.MethodPost, "/me/thread_settings", nil, setting, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// The URL reported in errors never includes the access token.
	endpoint := c.baseURL + path
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", c.accessToken)

	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return domerrors.NewGatewayError(op, endpoint, 0, "", fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+query.Encode(), body)
	if err != nil {
		return domerrors.NewGatewayError(op, endpoint, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domerrors.NewGatewayError(op, endpoint, 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return domerrors.NewGatewayError(op, endpoint, resp.StatusCode, string(raw), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domerrors.NewGatewayError(op, endpoint, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
