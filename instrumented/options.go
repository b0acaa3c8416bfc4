package instrumented

// config collects everything the Of factory can be configured with.
type config struct {
	payload   Fields
	observers observers
}

// Option defines a functional option for the Of factory.
type Option func(*config) error

// WithEventPayload merges a free-form payload into the construction record,
// e.g. WithEventPayload(Fields{"randomNumber": 0.42}). The map is copied, so
// later caller-side mutation does not reach the record.
func WithEventPayload(payload Fields) Option {
	return func(cfg *config) error {
		if len(payload) == 0 {
			return nil
		}

		if cfg.payload == nil {
			cfg.payload = make(Fields, len(payload))
		}

		for key, val := range payload {
			cfg.payload[key] = val
		}

		return nil
	}
}

// WithLogger sets the logger for the chain started by this Of call.
// The logger is carried through composition to all successor wrappers.
//
// Debug level: drain start with record count (development use)
// Info level: drain completion with record count and duration (production-safe)
// Error level: sink delivery failures.
func WithLogger(logger Logger) Option {
	return func(cfg *config) error {
		cfg.observers.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the chain. When both a
// Logger and a ContextualLogger are configured, the contextual one wins for
// context-carrying operations.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(cfg *config) error {
		cfg.observers.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the chain. The collector
// receives a counter per composition call and duration, call count, and
// record count metrics per drain.
func WithMetrics(collector MetricsCollector) Option {
	return func(cfg *config) error {
		cfg.observers.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the chain. The collector
// receives one span per drain, wrapping the sink invocation.
func WithTracing(collector TracingCollector) Option {
	return func(cfg *config) error {
		cfg.observers.tracingCollector = collector
		return nil
	}
}
