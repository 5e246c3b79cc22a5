package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Str("sink", "log").Logger()}
}

func (l *LogNotifier) Name() string    { return "log" }
func (l *LogNotifier) IsEnabled() bool { return true }

func (l *LogNotifier) Send(ctx context.Context, n Notification) error {
	ev := l.logger.Info()
	if n.Type == NotificationError {
		ev = l.logger.Warn()
	}
	ev.Str("type", string(n.Type)).
		Str("title", n.Title).
		Time("at", n.Timestamp).
		Fields(n.Data).
		Msg(n.Message)
	return nil
}
