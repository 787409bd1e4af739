package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInterrupted  = errors.New("run interrupted")
	ErrNoActiveRun  = errors.New("no filter in progress")
	ErrFilterActive = errors.New("another filter is still in progress")
)

// RunState tracks the filter currently in flight and its accumulator. The pair is
// only ever changed while holding lock, so the interrupt path sees either the state
// before a page merge or after it, never a half-merged page or a name without its set.
// lock is a one-slot channel rather than a sync.Mutex so Flush can give up waiting
// when its context ends.
type RunState struct {
	lock      chan struct{}
	id        uuid.UUID
	startedAt time.Time

	filter string
	acc    *Accumulator
	pages  int

	completed []CompletedFilter
	closed    bool
}

type CompletedFilter struct {
	Name    string    `json:"name"`
	Count   int       `json:"count"`
	Pages   int       `json:"pages"`
	Partial bool      `json:"partial"`
	At      time.Time `json:"at"`
}

// Snapshot is a read-only view for status reporting.
type Snapshot struct {
	RunID         string            `json:"run_id"`
	StartedAt     time.Time         `json:"started_at"`
	CurrentFilter string            `json:"current_filter,omitempty"`
	CurrentCount  int               `json:"current_count"`
	CurrentPages  int               `json:"current_pages"`
	Completed     []CompletedFilter `json:"completed"`
	Closed        bool              `json:"closed"`
}

func NewRunState() *RunState {
	return &RunState{
		lock:      make(chan struct{}, 1),
		id:        uuid.New(),
		startedAt: time.Now(),
	}
}

func (s *RunState) ID() uuid.UUID {
	return s.id
}

// Begin makes name the active filter with a fresh, empty accumulator.
func (s *RunState) Begin(name string) error {
	s.acquire()
	defer s.release()

	if s.closed {
		return ErrInterrupted
	}
	if s.acc != nil {
		return fmt.Errorf("%w: %s", ErrFilterActive, s.filter)
	}

	s.filter = name
	s.acc = NewAccumulator()
	s.pages = 0
	return nil
}

// Merge folds one completed page into the active accumulator and returns the
// accumulator size before and after.
func (s *RunState) Merge(values []string) (before, after int, err error) {
	s.acquire()
	defer s.release()

	if s.closed {
		return 0, 0, ErrInterrupted
	}
	if s.acc == nil {
		return 0, 0, ErrNoActiveRun
	}

	before = s.acc.Len()
	s.acc.Merge(values)
	s.pages++
	return before, s.acc.Len(), nil
}

// Complete writes the active accumulator to sink and clears the active pair.
// The write happens under the lock so it cannot interleave with Flush.
func (s *RunState) Complete(ctx context.Context, sink Sink) ([]string, error) {
	s.acquire()
	defer s.release()

	if s.closed {
		return nil, ErrInterrupted
	}
	if s.acc == nil {
		return nil, ErrNoActiveRun
	}

	values := s.acc.Values()
	if err := sink.Write(ctx, s.filter, values); err != nil {
		return nil, fmt.Errorf("failed to write results for %s: %w", s.filter, err)
	}

	s.completed = append(s.completed, CompletedFilter{
		Name:  s.filter,
		Count: len(values),
		Pages: s.pages,
		At:    time.Now(),
	})
	s.clear()
	return values, nil
}

// Flush is the interrupt path. It writes whatever the active accumulator holds,
// then closes the state so no later Merge or Complete can produce a second file.
// wrote is false when no filter was active.
// If a Complete is still writing when ctx ends, Flush returns ctx's error
// without writing; the in-flight write produces the file.
func (s *RunState) Flush(ctx context.Context, sink Sink) (name string, count int, wrote bool, err error) {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return "", 0, false, fmt.Errorf("failed to acquire run state: %w", ctx.Err())
	}
	defer s.release()

	if s.closed {
		return "", 0, false, nil
	}
	s.closed = true

	if s.acc == nil {
		return "", 0, false, nil
	}

	name = s.filter
	values := s.acc.Values()
	if err := sink.Write(ctx, name, values); err != nil {
		return name, 0, false, fmt.Errorf("failed to write partial results for %s: %w", name, err)
	}

	s.completed = append(s.completed, CompletedFilter{
		Name:    name,
		Count:   len(values),
		Pages:   s.pages,
		Partial: true,
		At:      time.Now(),
	})
	s.clear()
	return name, len(values), true, nil
}

func (s *RunState) Snapshot() Snapshot {
	s.acquire()
	defer s.release()

	snap := Snapshot{
		RunID:         s.id.String(),
		StartedAt:     s.startedAt,
		CurrentFilter: s.filter,
		CurrentPages:  s.pages,
		Completed:     append([]CompletedFilter(nil), s.completed...),
		Closed:        s.closed,
	}
	if s.acc != nil {
		snap.CurrentCount = s.acc.Len()
	}
	return snap
}

func (s *RunState) acquire() {
	s.lock <- struct{}{}
}

func (s *RunState) release() {
	<-s.lock
}

func (s *RunState) clear() {
	s.filter = ""
	s.acc = nil
	s.pages = 0
}
