package interrupt

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/maltedev/listing-harvester/internal/harvest"
)

// Flusher is the part of RunState the handler needs.
type Flusher interface {
	Flush(ctx context.Context, sink harvest.Sink) (name string, count int, wrote bool, err error)
}

// Handler turns a termination signal into a partial write of the filter in
// flight, followed by browser shutdown and process exit with status 0.
type Handler struct {
	state   Flusher
	sink    harvest.Sink
	browser io.Closer
	exit    func(code int)
	timeout time.Duration
	logger  *slog.Logger

	once  sync.Once
	fired chan struct{}
}

type Option func(*Handler)

// WithExit replaces os.Exit.
func WithExit(exit func(code int)) Option {
	return func(h *Handler) {
		h.exit = exit
	}
}

// WithTimeout bounds the partial write.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

func New(state Flusher, sink harvest.Sink, browser io.Closer, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		state:   state,
		sink:    sink,
		browser: browser,
		exit:    os.Exit,
		timeout: 30 * time.Second,
		logger:  logger.With("component", "interrupt"),
		fired:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Listen registers for SIGINT and SIGTERM and handles the first one received.
// A second signal while the partial write is still running exits at once with
// status 1. The returned function unregisters.
func (h *Handler) Listen() (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			h.logger.Info("caught interrupt, writing partial results", "signal", sig.String())
			go h.Handle()
		case <-done:
			return
		}

		select {
		case sig := <-sigChan:
			h.logger.Warn("caught second interrupt, exiting without waiting for partial write", "signal", sig.String())
			h.exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// Fired is closed once handling has begun. Errors the main flow sees after
// that are fallout from the shutdown and must not change the exit status.
func (h *Handler) Fired() <-chan struct{} {
	return h.fired
}

// Handle flushes, closes the browser and exits. Only the first call has effect.
func (h *Handler) Handle() {
	h.once.Do(func() {
		close(h.fired)

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		name, count, wrote, err := h.state.Flush(ctx, h.sink)
		switch {
		case err != nil:
			h.logger.Error("failed to write partial results", "filter", name, "error", err)
		case wrote:
			h.logger.Info("partially wrote results", "filter", name, "count", count)
		default:
			h.logger.Info("no filter in progress, nothing to write")
		}

		if h.browser != nil {
			if err := h.browser.Close(); err != nil {
				h.logger.Error("failed to close browser", "error", err)
			}
		}

		h.exit(0)
	})
}
