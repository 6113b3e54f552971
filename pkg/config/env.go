package config

const (
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvMaxRequestSize  = "MAX_REQUEST_SIZE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvCORSAllowedOrigin = "CORS_ALLOWED_ORIGIN"
	EnvTrustProxyHeaders = "TRUST_PROXY_HEADERS"

	EnvWebhookURL          = "WEBHOOK_URL"
	EnvN8NWebhookURL       = "N8N_WEBHOOK_URL"
	EnvWebhookTimeout      = "WEBHOOK_TIMEOUT"
	EnvWebhookMaxAttempts  = "WEBHOOK_MAX_ATTEMPTS"
	EnvWebhookRetryBackoff = "WEBHOOK_RETRY_BACKOFF"
	EnvWebhookSecret       = "WEBHOOK_SECRET"

	EnvDedupBackend  = "DEDUP_BACKEND"
	EnvDedupTTL      = "DEDUP_TTL"
	EnvDedupCapacity = "DEDUP_CAPACITY"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvEventsQueueCapacity = "EVENTS_QUEUE_CAPACITY"
	EnvEventsFlushInterval = "EVENTS_FLUSH_INTERVAL"
	EnvEventsWebhookURL    = "EVENTS_WEBHOOK_URL"

	EnvLeadEventName      = "LEAD_EVENT_NAME"
	EnvLeadDefaultMessage = "LEAD_DEFAULT_MESSAGE"
	EnvLeadDefaultCity    = "LEAD_DEFAULT_CITY"
	EnvLeadChannel        = "LEAD_CHANNEL"
	EnvWhatsAppText       = "WHATSAPP_TEXT"
	EnvDefaultClientIP    = "DEFAULT_CLIENT_IP"
	EnvDefaultUserAgent   = "DEFAULT_USER_AGENT"
)
