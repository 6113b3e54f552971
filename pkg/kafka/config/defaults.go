package kafka_config

import "time"

const (
	// Topics
	DefaultLeadsTopic  = "leads.contact"
	DefaultEventsTopic = "leads.events"
	DefaultDLQTopic    = "leads.dlq"

	// Producer defaults
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// Middleware defaults
	DefaultEnableMiddleware = true
)
