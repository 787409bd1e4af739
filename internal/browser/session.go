package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/listing-harvester/internal/parser"
)

// revealScript scrolls the document in fixed steps until the viewport reaches
// the bottom. Listing rows load lazily as they scroll into view. A step that
// neither moves the viewport nor grows the document ends the loop.
const revealScript = `async ({ distance, delay }) => {
	const doc = document.scrollingElement || document.documentElement;
	while (doc.scrollTop + window.innerHeight < doc.scrollHeight) {
		const top = doc.scrollTop;
		const height = doc.scrollHeight;
		doc.scrollBy(0, distance);
		await new Promise(r => setTimeout(r, delay));
		if (doc.scrollTop === top && doc.scrollHeight === height) {
			break;
		}
	}
}`

// Session is one authenticated tab.
type Session struct {
	page   playwright.Page
	logger *slog.Logger
}

func newSession(page playwright.Page, logger *slog.Logger) *Session {
	return &Session{
		page:   page,
		logger: logger,
	}
}

func (s *Session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debug("navigating", "url", url)
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *Session) RevealAll(ctx context.Context, step int, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.Evaluate(revealScript, map[string]interface{}{
		"distance": step,
		"delay":    delay.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to scroll page: %w", err)
	}
	return nil
}

func (s *Session) ExtractTexts(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	return parser.Texts(html, selector)
}

func (s *Session) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}
