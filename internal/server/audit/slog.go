package audit

import (
	"context"

	"github.com/savelyev/securesms/internal/logging"
)

// LogSink writes audit events through the structured logger, mirroring a
// dedicated audit log stream.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("channel", "audit")}
}

func (s *LogSink) Record(ctx context.Context, event string, fields map[string]any) {
	args := make([]any, 0, len(fields)*2+2)
	args = append(args, "event", event)
	for k, v := range fields {
		args = append(args, k, v)
	}
	s.log.Info(ctx, "audit", args...)
}
