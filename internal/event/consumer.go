package event

import (
	"context"
	"log/slog"
)

// Consume subscribes to bus and hands every event to each sink in order
// until ctx is cancelled. The returned channel closes once the consumer
// has stopped and unsubscribed.
func Consume(ctx context.Context, bus Bus, sinks ...func(Event)) <-chan struct{} {
	events, unsubscribe := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				for _, sink := range sinks {
					sink(e)
				}
			}
		}
	}()

	return done
}

// AuditLog returns a sink that writes each event as one structured log line.
func AuditLog(logger *slog.Logger) func(Event) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e Event) {
		args := []any{"event_id", e.ID, "type", string(e.Type), "subject", e.Subject}
		for k, v := range e.Attributes {
			args = append(args, k, v)
		}
		logger.Info("audit", args...)
	}
}
