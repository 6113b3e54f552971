package main

import (
	"context"
	"errors"

	"leadpipe/internal/delivery"
	eventhandler "leadpipe/internal/events/handler"
	eventservice "leadpipe/internal/events/service"
	eventvalidator "leadpipe/internal/events/validator"
	leadhandler "leadpipe/internal/leads/handler"
	leadservice "leadpipe/internal/leads/service"
	leadvalidator "leadpipe/internal/leads/validator"
	"leadpipe/pkg/app"
	"leadpipe/pkg/config"
	"leadpipe/pkg/dedup"
	"leadpipe/pkg/kafka"
	kafkamiddleware "leadpipe/pkg/kafka/middleware"
	"leadpipe/pkg/logger"
)

const serviceName = "leads"

func main() {
	cfg := config.Load(serviceName)
	cfg.Log.Info("Starting Leads service")

	application := app.NewApplication()
	c := buildComponents(cfg)

	stopTracker := startTracker(c.tracker)
	cfg.Log.Info("Event tracker started", "flush_interval", cfg.EventsFlushInterval)

	// The tracker flushes into the event dispatcher, so it stops first and
	// the dispatchers drain after it.
	application.OnShutdown("event-tracker", stopTracker)
	application.OnShutdown("lead-dispatcher", c.leadDispatcher.Wait)
	application.OnShutdown("event-dispatcher", c.eventDispatcher.Wait)
	application.OnShutdown("kafka-producers", c.closeSenders)
	application.OnShutdown("dedup", c.closeDedup)

	application.SetApp(cfg,
		leadhandler.NewLeadHandler(c.leads, cfg.Log),
		eventhandler.NewEventHandler(c.tracker, cfg.Log),
	)
	application.Run()
}

type components struct {
	leads           leadservice.LeadService
	tracker         *eventservice.Tracker
	leadDispatcher  *delivery.Dispatcher
	eventDispatcher *delivery.Dispatcher
	closeSenders    func(context.Context) error
	closeDedup      func(context.Context) error
}

func buildComponents(cfg *config.Config) *components {
	leadSeen, eventSeen := initDedupStores(cfg)

	leadSenders, eventSenders, closeSenders := initSenders(cfg)
	dispatcherCfg := delivery.DispatcherConfig{
		Timeout:     cfg.WebhookTimeout,
		MaxAttempts: cfg.WebhookMaxAttempts,
		Backoff:     cfg.WebhookRetryBackoff,
	}
	leadDispatcher := delivery.NewDispatcher(dispatcherCfg, cfg.Log.Component("lead-delivery"), leadSenders...)
	eventDispatcher := delivery.NewDispatcher(dispatcherCfg, cfg.Log.Component("event-delivery"), eventSenders...)

	leads := leadservice.NewLeadService(
		leadvalidator.NewContactValidator(cfg.Log),
		leadSeen,
		leadDispatcher,
		leadservice.OptionsFromConfig(cfg),
		cfg.Log.Component("leads"),
	)
	cfg.Log.Info("Lead service initialized")

	tracker := eventservice.NewTracker(
		eventvalidator.NewEventValidator(cfg.Log),
		eventSeen,
		eventDispatcher,
		eventservice.TrackerOptions{
			QueueCapacity:    cfg.EventsQueueCapacity,
			FlushInterval:    cfg.EventsFlushInterval,
			DefaultClientIP:  cfg.DefaultClientIP,
			DefaultUserAgent: cfg.DefaultUserAgent,
		},
		cfg.Log.Component("events"),
	)

	return &components{
		leads:           leads,
		tracker:         tracker,
		leadDispatcher:  leadDispatcher,
		eventDispatcher: eventDispatcher,
		closeSenders:    closeSenders,
		closeDedup: func(ctx context.Context) error {
			return errors.Join(leadSeen.Close(ctx), eventSeen.Close(ctx))
		},
	}
}

// initDedupStores returns separate stores for lead ids and browser event ids,
// so a pixel event and the lead it is paired with can share one id.
func initDedupStores(cfg *config.Config) (leads, events dedup.Store) {
	if !cfg.UsesMongo() {
		cfg.Log.Info("Using in-memory dedup stores", "capacity", cfg.DedupCapacity, "ttl", cfg.DedupTTL)
		return dedup.NewMemoryStore(cfg.DedupCapacity, cfg.DedupTTL), dedup.NewMemoryStore(cfg.DedupCapacity, cfg.DedupTTL)
	}

	cfg.SetMongo()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	leadStore, err := dedup.NewMongoStore(ctx, db.Collection(dedup.SeenLeadsCollection), cfg.DedupTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Mongo dedup store", "collection", dedup.SeenLeadsCollection, "error", err)
	}
	eventStore, err := dedup.NewMongoStore(ctx, db.Collection(dedup.SeenEventsCollection), cfg.DedupTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Mongo dedup store", "collection", dedup.SeenEventsCollection, "error", err)
	}
	cfg.Log.Info("Using Mongo dedup stores", "database", cfg.MongoDatabaseName, "ttl", cfg.DedupTTL)
	return leadStore, eventStore
}

// initSenders returns the senders for lead payloads and for batched browser
// events, plus a function closing the Kafka producers. Leads go to WEBHOOK_URL
// and events to EVENTS_WEBHOOK_URL when it is set; Kafka adds one producer per
// topic.
func initSenders(cfg *config.Config) ([]delivery.Sender, []delivery.Sender, func(context.Context) error) {
	if cfg.WebhookURL == "" {
		cfg.Log.Warn("WEBHOOK_URL is not set, lead payloads will not be forwarded to the webhook")
	}
	leadSenders := []delivery.Sender{
		delivery.NewWebhookSender(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout, cfg.Log.Component("lead-webhook")),
	}

	var eventSenders []delivery.Sender
	if cfg.EventsWebhookURL != "" {
		eventSenders = append(eventSenders,
			delivery.NewWebhookSender(cfg.EventsWebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout, cfg.Log.Component("event-webhook")))
	}

	if cfg.Kafka == nil {
		if len(eventSenders) == 0 {
			cfg.Log.Warn("No event sink configured, browser events will be dropped on flush")
		}
		return leadSenders, eventSenders, func(context.Context) error { return nil }
	}

	leadsProducer := newProducer(cfg, cfg.Kafka.LeadsTopic, cfg.Log)
	eventsProducer := newProducer(cfg, cfg.Kafka.EventsTopic, cfg.Log)

	leadsSender := delivery.NewKafkaSender(leadsProducer)
	eventsSender := delivery.NewKafkaSender(eventsProducer)
	closeProducers := func(context.Context) error {
		return errors.Join(leadsSender.Close(), eventsSender.Close())
	}

	return append(leadSenders, leadsSender), append(eventSenders, eventsSender), closeProducers
}

func newProducer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Producer {
	producer, err := kafka.NewProducer(cfg.Kafka, topic, cfg.Kafka.DLQTopic, log.Component("kafka"))
	if err != nil {
		log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(log))
	}
	log.Info("Kafka producer initialized", "topic", topic)
	return producer
}

// startTracker runs the periodic flusher and returns a function that stops it
// after a final flush.
func startTracker(tracker *eventservice.Tracker) func(ctx context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Run(ctx)
	}()

	return func(waitCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-waitCtx.Done():
			return waitCtx.Err()
		}
	}
}
