package models

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrInvalidFilter = errors.New("invalid filter")

// DefaultOffsetParam is the query parameter carrying a page's starting index.
const DefaultOffsetParam = "start"

type Filter struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

func (f Filter) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFilter)
	}

	u, err := url.Parse(f.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFilter, f.Name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s: url must be absolute http(s)", ErrInvalidFilter, f.Name)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s: url has no host", ErrInvalidFilter, f.Name)
	}

	return nil
}

// PageQuery addresses one page of a filter's listing.
type PageQuery struct {
	base   url.URL
	params url.Values
	param  string
	Offset int
}

// NewPageQuery parses a filter's listing URL and drops any offset already present
// in its query, so the first page always starts at zero.
func NewPageQuery(rawURL, offsetParam string) (PageQuery, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PageQuery{}, fmt.Errorf("failed to parse listing url: %w", err)
	}
	if offsetParam == "" {
		offsetParam = DefaultOffsetParam
	}

	params := u.Query()
	params.Del(offsetParam)

	base := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}

	return PageQuery{base: base, params: params, param: offsetParam}, nil
}

// At returns a copy of the query positioned at offset. The receiver is not modified.
func (q PageQuery) At(offset int) PageQuery {
	q.Offset = offset
	return q
}

// Params returns the base query plus the offset parameter.
func (q PageQuery) Params() url.Values {
	params := make(url.Values, len(q.params)+1)
	for k, v := range q.params {
		params[k] = append([]string(nil), v...)
	}
	params.Set(q.param, strconv.Itoa(q.Offset))
	return params
}

func (q PageQuery) String() string {
	u := q.base
	u.RawQuery = q.Params().Encode()
	return u.String()
}
