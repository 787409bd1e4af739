package interrupt

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/listing-harvester/internal/harvest"
)

type recordingSink struct {
	writes map[string][]string
	err    error
}

func (s *recordingSink) Write(ctx context.Context, key string, values []string) error {
	if s.err != nil {
		return s.err
	}
	if s.writes == nil {
		s.writes = make(map[string][]string)
	}
	s.writes[key] = values
	return nil
}

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func TestHandler_Handle(t *testing.T) {
	t.Run("writes active filter", func(t *testing.T) {
		state := harvest.NewRunState()
		require.NoError(t, state.Begin("Go Engineers"))
		_, _, err := state.Merge([]string{"Ada", "Grace"})
		require.NoError(t, err)

		sink := &recordingSink{}
		browser := &closer{}
		var code = -1
		h := New(state, sink, browser, nil, WithExit(func(c int) { code = c }))

		select {
		case <-h.Fired():
			t.Fatal("fired before Handle")
		default:
		}

		h.Handle()

		select {
		case <-h.Fired():
		default:
			t.Fatal("expected Fired to be closed")
		}
		assert.Equal(t, []string{"Ada", "Grace"}, sink.writes["Go Engineers"])
		assert.Equal(t, 1, browser.closed)
		assert.Equal(t, 0, code)

		_, _, err = state.Merge([]string{"late"})
		assert.ErrorIs(t, err, harvest.ErrInterrupted)
	})

	t.Run("idle state exits without writing", func(t *testing.T) {
		sink := &recordingSink{}
		browser := &closer{}
		exits := 0
		h := New(harvest.NewRunState(), sink, browser, nil, WithExit(func(int) { exits++ }))

		h.Handle()
		h.Handle()

		assert.Empty(t, sink.writes)
		assert.Equal(t, 1, browser.closed)
		assert.Equal(t, 1, exits)
	})

	t.Run("write and close failures still exit zero", func(t *testing.T) {
		state := harvest.NewRunState()
		require.NoError(t, state.Begin("x"))

		sink := &recordingSink{err: errors.New("disk full")}
		browser := &closer{err: errors.New("already closed")}
		code := -1
		h := New(state, sink, browser, nil, WithExit(func(c int) { code = c }), WithTimeout(time.Second))

		h.Handle()

		assert.Equal(t, 1, browser.closed)
		assert.Equal(t, 0, code)
	})
}

func TestHandler_Listen(t *testing.T) {
	state := harvest.NewRunState()
	require.NoError(t, state.Begin("signalled"))
	_, _, err := state.Merge([]string{"one"})
	require.NoError(t, err)

	sink := &recordingSink{}
	exited := make(chan int, 1)
	h := New(state, sink, nil, nil, WithExit(func(c int) { exited <- c }))

	stop := h.Listen()
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case code := <-exited:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not run")
	}
	assert.Equal(t, []string{"one"}, sink.writes["signalled"])
}

type stallingSink struct {
	started chan struct{}
	release chan struct{}
}

func (s *stallingSink) Write(ctx context.Context, key string, values []string) error {
	close(s.started)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}

func TestHandler_SecondSignalForcesExit(t *testing.T) {
	state := harvest.NewRunState()
	require.NoError(t, state.Begin("stuck"))
	_, _, err := state.Merge([]string{"one"})
	require.NoError(t, err)

	stalled := &stallingSink{started: make(chan struct{}), release: make(chan struct{})}
	go state.Complete(context.Background(), stalled)
	<-stalled.started

	exited := make(chan int, 2)
	h := New(state, &recordingSink{}, nil, nil,
		WithExit(func(c int) { exited <- c }),
		WithTimeout(time.Minute),
	)

	stop := h.Listen()
	defer stop()
	defer close(stalled.release)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))
	select {
	case <-h.Fired():
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not start")
	}

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))
	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not force an exit")
	}
}

func TestHandler_HandleBoundedByTimeout(t *testing.T) {
	state := harvest.NewRunState()
	require.NoError(t, state.Begin("slow"))

	stalled := &stallingSink{started: make(chan struct{}), release: make(chan struct{})}
	defer close(stalled.release)
	go state.Complete(context.Background(), stalled)
	<-stalled.started

	browser := &closer{}
	exited := make(chan int, 1)
	h := New(state, &recordingSink{}, browser, nil,
		WithExit(func(c int) { exited <- c }),
		WithTimeout(100*time.Millisecond),
	)

	go h.Handle()

	select {
	case code := <-exited:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("handler stayed blocked behind an in-flight write")
	}
	assert.Equal(t, 1, browser.closed)
}
