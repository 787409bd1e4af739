package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var ErrSelectorRequired = errors.New("selector is required")

// Texts returns the trimmed text content of every element in html matching
// selector, in document order. Elements with no text are skipped.
func Texts(html, selector string) ([]string, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, ErrSelectorRequired
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var texts []string
	doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			texts = append(texts, text)
		}
	})

	return texts, nil
}
