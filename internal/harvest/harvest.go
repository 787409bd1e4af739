package harvest

import (
	"context"
	"time"
)

// Page is the browser capability the controller drives. Implementations own a
// single navigable tab; calls are never made concurrently.
type Page interface {
	Goto(ctx context.Context, url string) error
	Wait(ctx context.Context, d time.Duration) error
	// RevealAll scrolls by step until the bottom of the document is in view,
	// pausing delay between steps so lazily loaded content can render.
	RevealAll(ctx context.Context, step int, delay time.Duration) error
	ExtractTexts(ctx context.Context, selector string) ([]string, error)
}

// Sink persists one filter's values under key, replacing any previous output for it.
type Sink interface {
	Write(ctx context.Context, key string, values []string) error
}

// Gate blocks until the operator confirms the session is authenticated.
type Gate interface {
	Wait(ctx context.Context) error
}

type Options struct {
	PageSize    int
	SettleDelay time.Duration
	ScrollStep  int
	ScrollDelay time.Duration
	Selector    string
	OffsetParam string
}

func DefaultOptions() Options {
	return Options{
		PageSize:    25,
		SettleDelay: 5000 * time.Millisecond,
		ScrollStep:  200,
		ScrollDelay: 500 * time.Millisecond,
		Selector:    "span[data-test-row-lockup-full-name] a",
		OffsetParam: "start",
	}
}
