package delivery

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"leadpipe/pkg/kafka"
	"leadpipe/pkg/middleware"
	"leadpipe/pkg/model"
)

const (
	messageSource = "leadpipe"

	publishedCapacity = 10000
	publishedTTL      = time.Hour
)

// Publisher is the subset of kafka.Producer used for delivery.
type Publisher interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) (int, error)
	Topic() string
	Stats() kafka.ProducerStats
	Close() error
}

// KafkaSender publishes every event of a payload as its own message, keyed by
// event id so retries of the same event land on the same partition. Events
// already published are remembered, so retrying a partly published payload
// only sends the rest.
type KafkaSender struct {
	producer  Publisher
	published *expirable.LRU[string, struct{}]
}

func NewKafkaSender(producer Publisher) *KafkaSender {
	return &KafkaSender{
		producer:  producer,
		published: expirable.NewLRU[string, struct{}](publishedCapacity, nil, publishedTTL),
	}
}

func (s *KafkaSender) Name() string {
	return "kafka:" + s.producer.Topic()
}

func (s *KafkaSender) Send(ctx context.Context, payload *model.Payload) error {
	messages := make([]kafka.Message, 0, len(payload.Data))
	for _, event := range payload.Data {
		if s.published.Contains(event.EventID) {
			continue
		}

		msg, err := kafka.NewMessage().
			WithKey(event.EventID).
			WithValue(event).
			WithEventID(event.EventID).
			WithEventType(event.EventName).
			WithSource(messageSource).
			WithCorrelationID(middleware.RequestIDFromContext(ctx)).
			WithTimestamp(time.Unix(event.EventTime, 0)).
			Build()
		if err != nil {
			return &DeliveryError{Sender: s.Name(), Err: err}
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return nil
	}

	n, err := s.producer.PublishBatch(ctx, messages)
	for _, msg := range messages[:n] {
		s.published.Add(msg.Key, struct{}{})
	}
	if err != nil {
		return &DeliveryError{
			Sender:    s.Name(),
			Err:       err,
			Temporary: kafka.ClassifyError(err) == kafka.ErrorTypeTransient,
		}
	}
	return nil
}

func (s *KafkaSender) Stats() kafka.ProducerStats {
	return s.producer.Stats()
}

func (s *KafkaSender) Close() error {
	return s.producer.Close()
}
