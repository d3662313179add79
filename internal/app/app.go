// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torneiomaker/messenger-bot/internal/bot"
	"github.com/torneiomaker/messenger-bot/internal/buildinfo"
	"github.com/torneiomaker/messenger-bot/internal/config"
	"github.com/torneiomaker/messenger-bot/internal/conversation"
	"github.com/torneiomaker/messenger-bot/internal/logger"
	"github.com/torneiomaker/messenger-bot/internal/lolapi"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
	"github.com/torneiomaker/messenger-bot/internal/metrics"
	"github.com/torneiomaker/messenger-bot/internal/ratelimit"
	"github.com/torneiomaker/messenger-bot/internal/sentry"
	"github.com/torneiomaker/messenger-bot/internal/webhook"
)

// assetsDir is served under /assets when present; catalog media URLs point there.
const assetsDir = "public/assets"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	store          *conversation.Store
	webhookHandler *webhook.Handler
	senderLimiter  *ratelimit.KeyedLimiter // nil when disabled
	router         *gin.Engine
	server         *http.Server
	shuttingDown   atomic.Bool
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "torneio-maker")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls also pick up user_id and request_id.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Release()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	graph := messenger.NewClient(messenger.ClientConfig{
		BaseURL:     cfg.GraphAPIURL,
		AccessToken: cfg.PageAccessToken,
		Timeout:     cfg.OutboundTimeout,
	})
	summoners := lolapi.NewClient(lolapi.Config{
		BaseURL: cfg.ServerLOL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.OutboundTimeout,
		Metrics: m,
	})

	var sendLimiter *ratelimit.Limiter
	if cfg.SendRateLimit > 0 {
		sendLimiter = ratelimit.New(cfg.SendRateLimit, cfg.SendRateLimit)
	}

	store := conversation.NewStore(m)
	processor := bot.NewProcessor(bot.ProcessorConfig{
		Engine:      bot.NewEngine(bot.NewCatalog(cfg.ServerURL)),
		Store:       store,
		Sender:      graph,
		Profiles:    graph,
		Summoners:   summoners,
		SendLimiter: sendLimiter,
		Logger:      log,
		Metrics:     m,
	})

	opts := []webhook.HandlerOption{webhook.WithWebhookTimeout(cfg.WebhookTimeout)}
	var senderLimiter *ratelimit.KeyedLimiter
	if cfg.UserRateBurst > 0 {
		senderLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:       "sender",
			Burst:      cfg.UserRateBurst,
			RefillRate: cfg.UserRateRefill,
			Metrics:    m,
		})
		opts = append(opts, webhook.WithSenderLimiter(senderLimiter))
	}

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		AppSecret:       cfg.AppSecret,
		ValidationToken: cfg.ValidationToken,
		Processor:       processor,
		Metrics:         m,
		Logger:          log,
	}, opts...)

	app := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       registry,
		store:          store,
		webhookHandler: webhookHandler,
		senderLimiter:  senderLimiter,
	}

	gin.SetMode(gin.ReleaseMode)
	app.router = app.newRouter()
	if info, err := os.Stat(assetsDir); err == nil && info.IsDir() {
		app.router.Static("/assets", assetsDir)
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(app.router),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newRouter builds the gin engine and registers every route.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/webhook", a.webhookHandler.Verify)
	router.POST("/webhook", a.webhookHandler.Handle)
	router.GET("/authorize", authorizeHandler(a.cfg.AuthorizationCode))
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsAuthEnabled(), a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	if a.shuttingDown.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "shutting down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"version":       buildinfo.Release(),
		"conversations": a.store.Len(),
	})
}

// Run starts the HTTP server and background jobs and blocks until
// SIGINT/SIGTERM.
//
// Shutdown order: stop background jobs, stop accepting requests, drain
// in-flight webhook batches, then release limiters, Sentry and the logger.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
		cancel()
		a.wg.Wait()
		_ = a.shutdown()
		return fmt.Errorf("http server: %w", err)
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.updateGaugeMetrics(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives the error if the listener fails.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitForShutdownSignal returns a channel that receives SIGINT/SIGTERM.
func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown performs graceful shutdown of HTTP server and resources.
// Call it after background jobs have stopped.
func (a *Application) shutdown() error {
	a.shuttingDown.Store(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	if a.senderLimiter != nil {
		a.senderLimiter.Stop()
	}

	if !sentry.Flush(2 * time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	if dropped := a.logger.DroppedRecords(); dropped > 0 {
		a.logger.WithField("dropped", dropped).Warn("Remote log queue dropped records")
	}
	a.logger.WithField("conversations", a.store.Len()).Info("Shutdown complete")

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		// The remote sink is gone; this still reaches stdout.
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return nil
}

// updateGaugeMetrics periodically refreshes gauges that are not updated
// on the hot path.
func (a *Application) updateGaugeMetrics(ctx context.Context) {
	a.logger.Debug("Gauge metrics job started")
	defer a.logger.Debug("Gauge metrics job stopped")

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordGaugeMetrics()
		}
	}
}

func (a *Application) recordGaugeMetrics() {
	if a.metrics == nil {
		return
	}
	a.metrics.SetConversationsActive(a.store.Len())
	if a.senderLimiter != nil {
		a.metrics.SetRateLimiterKeys("sender", a.senderLimiter.GetActiveCount())
	}
}
