package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/listing-harvester/internal/models"
)

type transition int

const (
	nextPage transition = iota
	stopShortPage
	stopNoNewValues
)

func (t transition) reason() models.StopReason {
	switch t {
	case stopShortPage:
		return models.StopShortPage
	case stopNoNewValues:
		return models.StopNoNewValues
	}
	return ""
}

// decide is the pagination state machine. A page with fewer than pageSize values
// (zero included) is the last one. A full page that added nothing to the
// accumulator means the listing is repeating itself.
func decide(pageLen, pageSize, before, after int) transition {
	if pageLen == 0 || pageLen < pageSize {
		return stopShortPage
	}
	if after == before {
		return stopNoNewValues
	}
	return nextPage
}

// Controller pages through a single filter's listing.
type Controller struct {
	page   Page
	sink   Sink
	state  *RunState
	opts   Options
	logger *slog.Logger
}

func NewController(page Page, sink Sink, state *RunState, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		page:   page,
		sink:   sink,
		state:  state,
		opts:   opts,
		logger: logger.With("component", "controller"),
	}
}

// Run visits successive pages of f until a stop transition fires, then writes the
// deduplicated values through the sink. Browser errors are returned as-is; there
// is no retry.
func (c *Controller) Run(ctx context.Context, f models.Filter) (*models.FilterResult, error) {
	query, err := models.NewPageQuery(f.URL, c.opts.OffsetParam)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Name, err)
	}

	if err := c.state.Begin(f.Name); err != nil {
		return nil, err
	}

	logger := c.logger.With("filter", f.Name)
	logger.Info("scraping filter")

	pages := 0
	offset := 0
	var reason models.StopReason

	for {
		q := query.At(offset)
		logger.Info("navigating", "offset", offset)

		values, err := c.scrapePage(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("filter %s at offset %d: %w", f.Name, offset, err)
		}
		pages++
		logger.Info("page scraped", "offset", offset, "count", len(values))

		before, after, err := c.state.Merge(values)
		if err != nil {
			return nil, err
		}

		t := decide(len(values), c.opts.PageSize, before, after)
		if t != nextPage {
			reason = t.reason()
			break
		}
		offset += c.opts.PageSize
	}

	switch reason {
	case models.StopShortPage:
		logger.Info("reached final page", "pages", pages)
	case models.StopNoNewValues:
		logger.Info("no new values found", "pages", pages)
	}

	written, err := c.state.Complete(ctx, c.sink)
	if err != nil {
		return nil, err
	}
	logger.Info("wrote results", "count", len(written))

	return &models.FilterResult{
		Filter:     f,
		Values:     written,
		Pages:      pages,
		Reason:     reason,
		FinishedAt: time.Now(),
	}, nil
}

func (c *Controller) scrapePage(ctx context.Context, q models.PageQuery) ([]string, error) {
	if err := c.page.Goto(ctx, q.String()); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := c.page.Wait(ctx, c.opts.SettleDelay); err != nil {
		return nil, err
	}
	if err := c.page.RevealAll(ctx, c.opts.ScrollStep, c.opts.ScrollDelay); err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}
	if err := c.page.Wait(ctx, c.opts.SettleDelay); err != nil {
		return nil, err
	}

	raw, err := c.page.ExtractTexts(ctx, c.opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to extract: %w", err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}
