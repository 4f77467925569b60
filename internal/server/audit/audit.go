// Package audit defines the append-only security event recorder consumed by
// the login flow and the backup codec. The recorder is best-effort: failures
// are swallowed so that authentication never depends on audit durability.
package audit

import "context"

// Sink records security-relevant events. Implementations must never return
// control-flow errors to callers and must not log secret material.
type Sink interface {
	Record(ctx context.Context, event string, fields map[string]any)
}

// NopSink discards all events. Useful in tests.
type NopSink struct{}

func (NopSink) Record(context.Context, string, map[string]any) {}
