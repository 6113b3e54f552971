package delivery

import (
	"sync/atomic"

	"leadpipe/pkg/kafka"
)

// Metrics counts deliveries across all senders.
type Metrics struct {
	Dispatched atomic.Int64 // payloads handed to the dispatcher
	Delivered  atomic.Int64 // successful sender deliveries
	Failed     atomic.Int64 // sender deliveries that exhausted their attempts
	Retried    atomic.Int64 // extra attempts made after a failure
}

type MetricsSnapshot struct {
	Dispatched int64 `json:"dispatched"`
	Delivered  int64 `json:"delivered"`
	Failed     int64 `json:"failed"`
	Retried    int64 `json:"retried"`

	Kafka []kafka.ProducerStats `json:"kafka,omitempty"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Dispatched: m.Dispatched.Load(),
		Delivered:  m.Delivered.Load(),
		Failed:     m.Failed.Load(),
		Retried:    m.Retried.Load(),
	}
}
