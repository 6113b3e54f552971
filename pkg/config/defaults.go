package config

import "time"

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxRequestSize  = 64 * 1024 // 64KB

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultWebhookTimeout      = 5 * time.Second
	DefaultWebhookMaxAttempts  = 1
	DefaultWebhookRetryBackoff = 500 * time.Millisecond

	DedupBackendMemory = "memory"
	DedupBackendMongo  = "mongo"

	DefaultDedupBackend  = DedupBackendMemory
	DefaultDedupTTL      = 24 * time.Hour
	DefaultDedupCapacity = 100000
	// Mongo TTL indexes expire in whole seconds.
	MinMongoDedupTTL = time.Second

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "leadpipe"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultEventsQueueCapacity = 100
	DefaultEventsFlushInterval = 5 * time.Second

	DefaultLeadEventName      = "Contact"
	DefaultLeadDefaultMessage = "Quero saber mais sobre empréstimo"
	DefaultLeadDefaultCity    = "Não informada"
	DefaultLeadChannel        = "whatsapp"
	DefaultWhatsAppText       = "Quero saber mais sobre empréstimo"
	DefaultClientIP           = "127.0.0.1"
	DefaultUserAgent          = "Mozilla/5.0"
)
