package telemetry

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedSink wraps any Sink with a token-bucket limiter so a single
// noisy hook (or a runaway run) cannot overwhelm a downstream collector.
// Events that arrive faster than the configured rate block until a token
// is available or ctx is done, in which case the event is dropped.
type RateLimitedSink struct {
	next    Sink
	limiter *rate.Limiter
	logger  Logger
}

// NewRateLimitedSink wraps next with a limiter allowing eventsPerSecond
// sustained throughput and burst tokens of slack.
func NewRateLimitedSink(next Sink, eventsPerSecond float64, burst int, logger Logger) *RateLimitedSink {
	return &RateLimitedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst),
		logger:  logger,
	}
}

// Emit waits for a token (or ctx cancellation) before forwarding event to
// the wrapped sink.
func (s *RateLimitedSink) Emit(ctx context.Context, event Event) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "telemetry event dropped by rate limiter",
				"run_id", event.RunID, "step", event.Step, "error", err.Error())
		}
		return nil
	}
	return s.next.Emit(ctx, event)
}
