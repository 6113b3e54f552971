package delivery

import (
	"context"
	"sync"
	"time"

	"leadpipe/pkg/kafka"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/middleware"
	"leadpipe/pkg/model"
)

const defaultAttemptTimeout = 5 * time.Second

type DispatcherConfig struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxAttempts of 1 disables retries.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// Dispatcher delivers payloads in the background so that request handlers
// never wait on downstream systems. Each sender is attempted independently.
type Dispatcher struct {
	senders []Sender
	cfg     DispatcherConfig
	log     *logger.Logger
	metrics *Metrics

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(cfg DispatcherConfig, log *logger.Logger, senders ...Sender) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAttemptTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		senders: senders,
		cfg:     cfg,
		log:     log,
		metrics: &Metrics{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// producerStatser is implemented by senders backed by a Kafka producer.
type producerStatser interface {
	Stats() kafka.ProducerStats
}

// Metrics returns the delivery counters plus the producer counters of every
// Kafka sender.
func (d *Dispatcher) Metrics() MetricsSnapshot {
	snapshot := d.metrics.Snapshot()
	for _, sender := range d.senders {
		if ps, ok := sender.(producerStatser); ok {
			snapshot.Kafka = append(snapshot.Kafka, ps.Stats())
		}
	}
	return snapshot
}

// Dispatch starts delivering payload and returns immediately. Values of ctx
// such as the request id are kept; its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *model.Payload) {
	if payload == nil || len(payload.Data) == 0 {
		return
	}
	d.metrics.Dispatched.Add(1)

	base := context.WithoutCancel(ctx)
	for _, sender := range d.senders {
		d.wg.Add(1)
		go func(sender Sender) {
			defer d.wg.Done()
			d.deliver(base, sender, payload)
		}(sender)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sender Sender, payload *model.Payload) {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.metrics.Retried.Add(1)
			if !d.sleep(time.Duration(attempt-1) * d.cfg.Backoff) {
				break
			}
		}

		err = d.attempt(ctx, sender, payload)
		if err == nil {
			d.metrics.Delivered.Add(1)
			d.log.Debug("Payload delivered",
				"sender", sender.Name(),
				"request_id", middleware.RequestIDFromContext(ctx),
				"event_ids", payload.EventIDs(),
				"attempt", attempt,
			)
			return
		}

		if !IsRetryable(err) {
			break
		}
	}

	d.metrics.Failed.Add(1)
	d.log.Error("Payload delivery failed",
		"sender", sender.Name(),
		"request_id", middleware.RequestIDFromContext(ctx),
		"event_ids", payload.EventIDs(),
		"error", err,
	)
}

func (d *Dispatcher) attempt(ctx context.Context, sender Sender, payload *model.Payload) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	return sender.Send(attemptCtx, payload)
}

// sleep waits for delay and reports false if the dispatcher was stopped.
func (d *Dispatcher) sleep(delay time.Duration) bool {
	if delay <= 0 {
		return d.ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// Wait blocks until in-flight deliveries finish. If ctx expires first the
// remaining attempts are canceled and ctx's error is returned.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
