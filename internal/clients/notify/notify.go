// Package notify defines the push-notification sink contract: best-effort,
// never allowed to fail the caller.
package notify

import (
	"context"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
)

// Sink delivers an operator-facing notification. Implementations must never
// return an error the caller is expected to act on; Notify logs and swallows
// delivery failures internally.
type Sink interface {
	Notify(ctx context.Context, title, message string)
}

// LogSink logs notifications instead of delivering them anywhere, the
// default when no external sink is configured.
type LogSink struct {
	log *logging.Logger
}

// NewLogSink builds a LogSink.
func NewLogSink(log *logging.Logger) *LogSink {
	if log == nil {
		log = logging.NewDefault("notify")
	}
	return &LogSink{log: log}
}

// Notify logs the notification at info level.
func (s *LogSink) Notify(ctx context.Context, title, message string) {
	s.log.WithField("title", title).Info(message)
}

// NoopSink discards every notification, useful in tests.
type NoopSink struct{}

// Notify does nothing.
func (NoopSink) Notify(ctx context.Context, title, message string) {}
