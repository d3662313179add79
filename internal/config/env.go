package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Messenger platform (required)
	EnvAppSecret       = "MESSENGER_APP_SECRET"
	EnvValidationToken = "MESSENGER_VALIDATION_TOKEN"
	EnvPageAccessToken = "MESSENGER_PAGE_ACCESS_TOKEN"
	EnvServerURL       = "SERVER_URL"

	// Stats service (required)
	EnvServerLOL = "SERVER_LOL"
	EnvAPIKey    = "API_KEY"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Outbound
	EnvGraphAPIURL     = "GRAPH_API_URL"
	EnvOutboundTimeout = "OUTBOUND_TIMEOUT"

	// Webhook
	EnvWebhookTimeout    = "WEBHOOK_TIMEOUT"
	EnvAuthorizationCode = "AUTHORIZATION_CODE"

	// Rate limits
	EnvSendRateLimit  = "SEND_RATE_LIMIT"
	EnvUserRateBurst  = "USER_RATE_BURST"
	EnvUserRateRefill = "USER_RATE_REFILL"

	// Sentry
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)

// fileKeys maps each environment variable to its key in the JSON/YAML
// config file. The first six keep the names used by config/default.json.
var fileKeys = map[string]string{
	EnvAppSecret:           "appSecret",
	EnvValidationToken:     "validationToken",
	EnvPageAccessToken:     "pageAccessToken",
	EnvServerURL:           "serverURL",
	EnvServerLOL:           "serverLOL",
	EnvAPIKey:              "api_key",
	EnvPort:                "port",
	EnvLogLevel:            "logLevel",
	EnvShutdownTimeout:     "shutdownTimeout",
	EnvGraphAPIURL:         "graphAPIURL",
	EnvOutboundTimeout:     "outboundTimeout",
	EnvWebhookTimeout:      "webhookTimeout",
	EnvAuthorizationCode:   "authorizationCode",
	EnvSendRateLimit:       "rateLimit.send",
	EnvUserRateBurst:       "rateLimit.userBurst",
	EnvUserRateRefill:      "rateLimit.userRefill",
	EnvSentryDSN:           "sentry.dsn",
	EnvSentryEnvironment:   "sentry.environment",
	EnvSentrySampleRate:    "sentry.sampleRate",
	EnvBetterStackToken:    "betterstack.token",
	EnvBetterStackEndpoint: "betterstack.endpoint",
	EnvMetricsUsername:     "metrics.username",
	EnvMetricsPassword:     "metrics.password",
}
