package storage

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMirrorTimeout bounds each mirror write.
const DefaultMirrorTimeout = 10 * time.Second

type Sink interface {
	Write(ctx context.Context, key string, values []string) error
}

// Fanout writes to a primary sink and then to any number of mirrors. Only the
// primary's error is returned; mirror failures, including timeouts, are logged.
type Fanout struct {
	primary       Sink
	mirrors       []Sink
	mirrorTimeout time.Duration
	logger        *slog.Logger
}

func NewFanout(primary Sink, logger *slog.Logger, mirrors ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		primary:       primary,
		mirrors:       mirrors,
		mirrorTimeout: DefaultMirrorTimeout,
		logger:        logger.With("component", "fanout"),
	}
}

// SetMirrorTimeout changes the per-mirror write deadline. Zero or less disables it.
func (f *Fanout) SetMirrorTimeout(d time.Duration) {
	f.mirrorTimeout = d
}

func (f *Fanout) Write(ctx context.Context, key string, values []string) error {
	if err := f.primary.Write(ctx, key, values); err != nil {
		return err
	}

	for _, m := range f.mirrors {
		if err := f.writeMirror(ctx, m, key, values); err != nil {
			f.logger.Error("mirror write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (f *Fanout) writeMirror(ctx context.Context, m Sink, key string, values []string) error {
	if f.mirrorTimeout <= 0 {
		return m.Write(ctx, key, values)
	}

	ctx, cancel := context.WithTimeout(ctx, f.mirrorTimeout)
	defer cancel()
	return m.Write(ctx, key, values)
}
