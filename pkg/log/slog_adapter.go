package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes radio events to an slog.Logger.
// Useful for development when you want to see radio events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Endpoint != NoEndpoint {
		attrs = append(attrs, slog.Int("endpoint", event.Endpoint))
	}
	if event.Address != "" {
		attrs = append(attrs, slog.String("address", event.Address))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}

	switch {
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Kind.String()),
			slog.String("data", string(event.Command.Data)),
		)
		if event.Command.Dropped {
			attrs = append(attrs,
				slog.Bool("dropped", true),
				slog.String("reason", event.Command.Reason),
			)
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Scan != nil:
		attrs = append(attrs,
			slog.String("scan", event.Scan.Action.String()),
			slog.Int("found", event.Scan.Found),
		)
		if event.Scan.Action == ScanResult {
			attrs = append(attrs, slog.Bool("allowed", event.Scan.Allowed))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "radio", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
