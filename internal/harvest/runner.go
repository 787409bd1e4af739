package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maltedev/listing-harvester/internal/models"
)

var ErrNoFilters = errors.New("no filters configured")

// Runner performs the login precondition and then processes every filter in
// order. The first failing filter aborts the rest of the list.
type Runner struct {
	page       Page
	gate       Gate
	controller *Controller
	opts       Options
	logger     *slog.Logger
}

func NewRunner(page Page, gate Gate, controller *Controller, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		page:       page,
		gate:       gate,
		controller: controller,
		opts:       opts,
		logger:     logger.With("component", "runner"),
	}
}

func (r *Runner) Run(ctx context.Context, filters []models.Filter) ([]*models.FilterResult, error) {
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	if err := r.page.Goto(ctx, filters[0].URL); err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}
	if err := r.page.Wait(ctx, r.opts.SettleDelay); err != nil {
		return nil, err
	}

	r.logger.Info("please log in (and complete 2FA), then press ENTER")
	if err := r.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed waiting for login: %w", err)
	}

	results := make([]*models.FilterResult, 0, len(filters))
	total := 0
	for _, f := range filters {
		res, err := r.controller.Run(ctx, f)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		total += res.Count()
	}

	r.logger.Info("all done", "filters", len(results), "values", total)
	return results, nil
}
