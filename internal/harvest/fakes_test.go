package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// fakePage serves scripted listing pages keyed by the offset query parameter.
type fakePage struct {
	pages   [][]string
	visited []string
	offsets []int
	waits   []time.Duration
	reveals int

	failAt    int
	failErr   error
	onExtract func(offset int)
}

func newFakePage(pages ...[]string) *fakePage {
	return &fakePage{pages: pages, failAt: -1}
}

func (p *fakePage) Goto(ctx context.Context, rawURL string) error {
	p.visited = append(p.visited, rawURL)
	return nil
}

func (p *fakePage) Wait(ctx context.Context, d time.Duration) error {
	p.waits = append(p.waits, d)
	return nil
}

func (p *fakePage) RevealAll(ctx context.Context, step int, delay time.Duration) error {
	p.reveals++
	return nil
}

func (p *fakePage) ExtractTexts(ctx context.Context, selector string) ([]string, error) {
	u, err := url.Parse(p.visited[len(p.visited)-1])
	if err != nil {
		return nil, err
	}
	offset, _ := strconv.Atoi(u.Query().Get("start"))
	p.offsets = append(p.offsets, offset)

	idx := len(p.offsets) - 1
	if p.onExtract != nil {
		p.onExtract(offset)
	}
	if idx == p.failAt {
		return nil, p.failErr
	}
	if idx >= len(p.pages) {
		return nil, nil
	}
	return p.pages[idx], nil
}

type fakeSink struct {
	mu     sync.Mutex
	writes map[string][][]string
	err    error
}

func newFakeSink() *fakeSink {
	return &fakeSink{writes: make(map[string][][]string)}
}

func (s *fakeSink) Write(ctx context.Context, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes[key] = append(s.writes[key], append([]string(nil), values...))
	return nil
}

func (s *fakeSink) last(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.writes[key]
	if len(w) == 0 {
		return nil
	}
	return w[len(w)-1]
}

func (s *fakeSink) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes[key])
}

type fakeGate struct {
	waited bool
	err    error
}

func (g *fakeGate) Wait(ctx context.Context) error {
	g.waited = true
	return g.err
}

func names(prefix string, from, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, from+i)
	}
	return out
}

// stallingSink blocks every Write until its context ends or release is closed.
type stallingSink struct {
	started chan struct{}
	release chan struct{}
}

func newStallingSink() *stallingSink {
	return &stallingSink{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *stallingSink) Write(ctx context.Context, key string, values []string) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}
