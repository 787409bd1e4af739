package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageQuery(t *testing.T) {
	t.Run("strips existing offset", func(t *testing.T) {
		q, err := NewPageQuery("https://www.linkedin.com/search/results/people/?keywords=go&start=75&origin=FACETED_SEARCH", "")
		require.NoError(t, err)

		u, err := url.Parse(q.String())
		require.NoError(t, err)
		assert.Equal(t, "www.linkedin.com", u.Host)
		assert.Equal(t, "/search/results/people/", u.Path)
		assert.Equal(t, []string{"0"}, u.Query()["start"])
		assert.Equal(t, "go", u.Query().Get("keywords"))
		assert.Equal(t, "FACETED_SEARCH", u.Query().Get("origin"))
	})

	t.Run("drops fragment and keeps repeated params", func(t *testing.T) {
		q, err := NewPageQuery("https://example.com/list?tag=a&tag=b#results", "")
		require.NoError(t, err)

		u, err := url.Parse(q.At(25).String())
		require.NoError(t, err)
		assert.Empty(t, u.Fragment)
		assert.Equal(t, []string{"a", "b"}, u.Query()["tag"])
		assert.Equal(t, "25", u.Query().Get("start"))
	})

	t.Run("custom offset param", func(t *testing.T) {
		q, err := NewPageQuery("https://example.com/list?offset=10&start=3", "offset")
		require.NoError(t, err)

		params := q.At(50).Params()
		assert.Equal(t, "50", params.Get("offset"))
		assert.Equal(t, "3", params.Get("start"))
	})

	t.Run("At does not modify the receiver", func(t *testing.T) {
		q, err := NewPageQuery("https://example.com/list?q=x", "")
		require.NoError(t, err)

		next := q.At(25)
		next.Params().Set("q", "changed")

		assert.Equal(t, 0, q.Offset)
		assert.Equal(t, "x", q.Params().Get("q"))
		assert.Equal(t, "x", next.Params().Get("q"))
		assert.Equal(t, "0", q.Params().Get("start"))
	})

	t.Run("unparseable url", func(t *testing.T) {
		_, err := NewPageQuery("://bad", "")
		assert.Error(t, err)
	})
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{Name: "Go", URL: "https://example.com/s?q=go"}.Validate())
	assert.ErrorIs(t, Filter{Name: "", URL: "https://example.com"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Name: "Go", URL: "ftp://example.com"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Name: "Go", URL: "https:///path"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Name: "Go", URL: "%zz"}.Validate(), ErrInvalidFilter)
}
