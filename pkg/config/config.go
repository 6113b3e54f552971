package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leadpipe/pkg/client"
	kafka_config "leadpipe/pkg/kafka/config"
	"leadpipe/pkg/logger"
)

type Config struct {
	Port string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	MaxRequestSize  int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
	// TrustProxyHeaders keys rate limiting on X-Forwarded-For/X-Real-IP
	// instead of the connection address.
	TrustProxyHeaders bool

	WebhookURL          string
	WebhookTimeout      time.Duration
	WebhookMaxAttempts  int
	WebhookRetryBackoff time.Duration
	WebhookSecret       string

	DedupBackend  string
	DedupTTL      time.Duration
	DedupCapacity int

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	EventsQueueCapacity int
	EventsFlushInterval time.Duration
	// EventsWebhookURL receives batched browser events. Empty disables the
	// webhook for events.
	EventsWebhookURL string

	LeadEventName      string
	LeadDefaultMessage string
	LeadDefaultCity    string
	LeadChannel        string
	WhatsAppText       string
	DefaultClientIP    string
	DefaultUserAgent   string

	// Kafka is nil unless KAFKA_BROKERS is set.
	Kafka *kafka_config.Config

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment (and a .env file when
// present) and exits the process when it is invalid.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load()

	cfg, err := FromEnv(serviceName)
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	if envFileErr != nil && !os.IsNotExist(envFileErr) {
		cfg.Log.Warn("Failed to load .env file", "error", envFileErr)
	}

	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds and validates the configuration without side effects beyond
// creating the logger. The returned Config is never nil.
func FromEnv(serviceName string) (*Config, error) {
	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize:  getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		CORSAllowedOrigin: getEnvStr(EnvCORSAllowedOrigin, ""),
		TrustProxyHeaders: getEnvBool(EnvTrustProxyHeaders, false),

		WebhookURL:          getEnvStr(EnvWebhookURL, getEnvStr(EnvN8NWebhookURL, "")),
		WebhookTimeout:      getEnvDuration(EnvWebhookTimeout, DefaultWebhookTimeout),
		WebhookMaxAttempts:  getEnvNum(EnvWebhookMaxAttempts, DefaultWebhookMaxAttempts),
		WebhookRetryBackoff: getEnvDuration(EnvWebhookRetryBackoff, DefaultWebhookRetryBackoff),
		WebhookSecret:       getEnvStr(EnvWebhookSecret, ""),

		DedupBackend:  strings.ToLower(getEnvStr(EnvDedupBackend, DefaultDedupBackend)),
		DedupTTL:      getEnvDuration(EnvDedupTTL, DefaultDedupTTL),
		DedupCapacity: getEnvNum(EnvDedupCapacity, DefaultDedupCapacity),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		EventsQueueCapacity: getEnvNum(EnvEventsQueueCapacity, DefaultEventsQueueCapacity),
		EventsFlushInterval: getEnvDuration(EnvEventsFlushInterval, DefaultEventsFlushInterval),
		EventsWebhookURL:    getEnvStr(EnvEventsWebhookURL, ""),

		LeadEventName:      getEnvStr(EnvLeadEventName, DefaultLeadEventName),
		LeadDefaultMessage: getEnvStr(EnvLeadDefaultMessage, DefaultLeadDefaultMessage),
		LeadDefaultCity:    getEnvStr(EnvLeadDefaultCity, DefaultLeadDefaultCity),
		LeadChannel:        getEnvStr(EnvLeadChannel, DefaultLeadChannel),
		WhatsAppText:       getEnvStr(EnvWhatsAppText, DefaultWhatsAppText),
		DefaultClientIP:    getEnvStr(EnvDefaultClientIP, DefaultClientIP),
		DefaultUserAgent:   getEnvStr(EnvDefaultUserAgent, DefaultUserAgent),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	var errs []string

	if kafka_config.Enabled() {
		kcfg, err := kafka_config.Load()
		if err != nil {
			errs = append(errs, err.Error())
		}
		cfg.Kafka = kcfg
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return cfg, formatErrors(errs)
	}
	return cfg, nil
}

// SetMongo connects the shared Mongo client. Only needed by the mongo dedup backend.
func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) UsesMongo() bool {
	return cfg.DedupBackend == DedupBackendMongo
}

func (cfg *Config) Validate() error {
	if errs := cfg.validate(); len(errs) > 0 {
		return formatErrors(errs)
	}
	return nil
}

func (cfg *Config) validate() []string {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"RequestTimeout", cfg.RequestTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"WebhookTimeout", cfg.WebhookTimeout},
		{"DedupTTL", cfg.DedupTTL},
		{"EventsFlushInterval", cfg.EventsFlushInterval},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.WebhookRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("WebhookRetryBackoff cannot be negative, got: %s", cfg.WebhookRetryBackoff))
	}

	positiveNums := []struct {
		name  string
		value int
	}{
		{"MaxRequestSize", cfg.MaxRequestSize},
		{"RateLimitRequests", cfg.RateLimitRequests},
		{"WebhookMaxAttempts", cfg.WebhookMaxAttempts},
		{"DedupCapacity", cfg.DedupCapacity},
		{"EventsQueueCapacity", cfg.EventsQueueCapacity},
	}
	for _, n := range positiveNums {
		if n.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %d", n.name, n.value))
		}
	}

	webhooks := []struct {
		name  string
		value string
	}{
		{"WebhookURL", cfg.WebhookURL},
		{"EventsWebhookURL", cfg.EventsWebhookURL},
	}
	for _, w := range webhooks {
		if w.value == "" {
			continue
		}
		u, err := url.Parse(w.value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s must be an absolute http(s) URL, got: %s", w.name, redactURL(w.value)))
		}
	}

	switch cfg.DedupBackend {
	case DedupBackendMemory:
	case DedupBackendMongo:
		if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
		if cfg.DedupTTL > 0 && cfg.DedupTTL < MinMongoDedupTTL {
			errors = append(errors, fmt.Sprintf("DedupTTL must be at least %s with the mongo backend, got: %s", MinMongoDedupTTL, cfg.DedupTTL))
		}
	default:
		errors = append(errors, fmt.Sprintf("DedupBackend must be one of [memory, mongo], got: %s", cfg.DedupBackend))
	}

	if strings.TrimSpace(cfg.LeadEventName) == "" {
		errors = append(errors, "LeadEventName cannot be empty")
	}

	return errors
}

func formatErrors(errors []string) error {
	errMsg := "Configuration validation failed:\n"
	for i, err := range errors {
		errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
	}
	return fmt.Errorf("%s", errMsg)
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"cors_allowed_origin", cfg.CORSAllowedOrigin,
		"trust_proxy_headers", cfg.TrustProxyHeaders,
		"webhook_url", redactURL(cfg.WebhookURL),
		"webhook_timeout", cfg.WebhookTimeout,
		"webhook_max_attempts", cfg.WebhookMaxAttempts,
		"webhook_retry_backoff", cfg.WebhookRetryBackoff,
		"webhook_secret_set", cfg.WebhookSecret != "",
		"dedup_backend", cfg.DedupBackend,
		"dedup_ttl", cfg.DedupTTL,
		"dedup_capacity", cfg.DedupCapacity,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"events_queue_capacity", cfg.EventsQueueCapacity,
		"events_flush_interval", cfg.EventsFlushInterval,
		"events_webhook_url", redactURL(cfg.EventsWebhookURL),
		"lead_event_name", cfg.LeadEventName,
		"lead_channel", cfg.LeadChannel,
		"kafka_enabled", cfg.Kafka != nil,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
	if cfg.WebhookURL == "" {
		cfg.Log.Warn("Webhook URL not configured, lead payloads will only be logged")
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

// redactURL drops credentials and the query string, which webhook providers
// commonly use to carry tokens.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword("***", "***")
	}
	if u.RawQuery != "" {
		u.RawQuery = "***"
	}
	return u.String()
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
