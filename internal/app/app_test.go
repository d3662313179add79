package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torneiomaker/messenger-bot/internal/bot"
	"github.com/torneiomaker/messenger-bot/internal/config"
	"github.com/torneiomaker/messenger-bot/internal/conversation"
	"github.com/torneiomaker/messenger-bot/internal/logger"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
	"github.com/torneiomaker/messenger-bot/internal/metrics"
	"github.com/torneiomaker/messenger-bot/internal/webhook"
)

type nopProcessor struct{}

func (nopProcessor) Process(context.Context, bot.Event) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		AppSecret:         "app-secret",
		ValidationToken:   "verify-me",
		PageAccessToken:   "page-token",
		ServerURL:         "https://bot.example.com",
		ServerLOL:         "https://lol.example.com",
		APIKey:            "lol-key",
		Port:              "0",
		LogLevel:          "error",
		ShutdownTimeout:   5 * time.Second,
		GraphAPIURL:       "https://graph.example.com/v2.6",
		OutboundTimeout:   5 * time.Second,
		WebhookTimeout:    5 * time.Second,
		AuthorizationCode: config.DefaultAuthorizationCode,
	}
}

// setupTestApp creates a minimal Application with routes registered.
func setupTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	log := logger.NewWithWriter("error", io.Discard)

	a := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
		store:    conversation.NewStore(m),
		webhookHandler: webhook.NewHandler(webhook.HandlerConfig{
			AppSecret:       cfg.AppSecret,
			ValidationToken: cfg.ValidationToken,
			Processor:       nopProcessor{},
			Metrics:         m,
			Logger:          log,
		}),
	}
	a.router = a.newRouter()
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())

	w := serve(a, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "alive", response["status"])
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())
	require.NoError(t, a.store.Update("U1", func(*conversation.Profile) error { return nil }))

	w := serve(a, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ready", response["status"])
	assert.InDelta(t, 1, response["conversations"], 0)

	a.shuttingDown.Store(true)
	w = serve(a, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "shutting down")
}

func TestWebhookVerifyRoute(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())

	w := serve(a, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	w = serve(a, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorizePage(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())

	redirect := "https://www.facebook.com/messenger_platform/account_linking/?account_linking_token=ALT"
	req := httptest.NewRequest(http.MethodGet, "/authorize?account_linking_token=ALT&redirect_uri="+
		strings.NewReplacer(":", "%3A", "/", "%2F", "?", "%3F", "=", "%3D", "&", "%26").Replace(redirect), nil)
	w := serve(a, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	assert.Equal(t, "ALT", doc.Find("#account-linking-token").Text())
	complete, ok := doc.Find("a#complete").Attr("href")
	require.True(t, ok)
	assert.Equal(t, redirect+"&authorization_code=1234567890", complete)
	cancel, ok := doc.Find("a#cancel").Attr("href")
	require.True(t, ok)
	assert.Equal(t, redirect, cancel)
}

func TestAuthorizePage_EscapesInput(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodGet,
		"/authorize?account_linking_token=%3Cscript%3Ealert(1)%3C%2Fscript%3E&redirect_uri=javascript%3Aalert(1)", nil)
	w := serve(a, req)

	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, "<script>alert(1)</script>", doc.Find("#account-linking-token").Text())
	href, _ := doc.Find("a#cancel").Attr("href")
	assert.NotContains(t, href, "javascript:")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("open", func(t *testing.T) {
		t.Parallel()
		a := setupTestApp(t, testConfig())
		w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "torneio_conversations_active")
	})

	t.Run("protected", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.MetricsUsername = "prometheus"
		cfg.MetricsPassword = "secret"
		a := setupTestApp(t, cfg)

		w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.SetBasicAuth("prometheus", "secret")
		w = serve(a, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddleware_HeadersAndRequestID(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())

	w := serve(a, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Len(t, w.Header().Get("X-Request-Id"), 36, "generated id is a UUID")

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Correlation-Id", "corr-1")
	w = serve(a, req)
	assert.Equal(t, "corr-1", w.Header().Get("X-Request-Id"))
}

func TestRecordGaugeMetrics(t *testing.T) {
	t.Parallel()
	a := setupTestApp(t, testConfig())
	require.NoError(t, a.store.Update("U1", func(*conversation.Profile) error { return nil }))
	require.NoError(t, a.store.Update("U2", func(*conversation.Profile) error { return nil }))

	a.metrics.SetConversationsActive(0)
	a.recordGaugeMetrics()

	w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "torneio_conversations_active 2")
}

// graphStub records Send API bodies and answers profile lookups.
type graphStub struct {
	mu    sync.Mutex
	sends []string
}

func (g *graphStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/me/messages" {
			body, _ := io.ReadAll(r.Body)
			g.mu.Lock()
			g.sends = append(g.sends, string(body))
			g.mu.Unlock()
			_, _ = io.WriteString(w, `{"recipient_id":"U1","message_id":"mid.1"}`)
			return
		}
		_, _ = io.WriteString(w, `{"first_name":"Ana"}`)
	})
}

func (g *graphStub) bodies() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.sends...)
}

// Not parallel: Initialize sets process-wide defaults (slog, gin mode).
func TestInitialize_EndToEnd(t *testing.T) {
	graph := &graphStub{}
	srv := httptest.NewServer(graph.handler())
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.GraphAPIURL = srv.URL

	a, err := Initialize(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	body := `{"object":"page","entry":[{"id":"PAGE","time":1,"messaging":[
		{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":1,"message":{"mid":"m1","text":"Ana"}}
	]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(messenger.HeaderSignature, messenger.Sign(cfg.AppSecret, []byte(body)))
	w := serve(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.webhookHandler.Shutdown(ctx))

	sends := graph.bodies()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0], "Ana, certo?")
	assert.Contains(t, sends[0], bot.PayloadNameOK)

	p, ok := a.store.Get("U1")
	require.True(t, ok)
	assert.Equal(t, conversation.StageAwaitingNameConfirmation, p.Stage)
	assert.Equal(t, "Ana", p.PendingName)
}
