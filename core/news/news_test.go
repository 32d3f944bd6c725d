package news_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/news"
)

func TestParseQueryFilter(t *testing.T) {
	q := url.Values{}
	q.Set("search", "  rentrée ")
	q.Set("category", "Academic")
	q.Set("published", "true")

	qf, err := news.ParseQueryFilter(q)
	require.NoError(t, err)
	assert.Equal(t, "rentrée", qf.Search)
	assert.Equal(t, "academic", qf.Category)
	require.NotNil(t, qf.Published)
	assert.True(t, *qf.Published)

	assert.True(t, qf.Match(news.News{Title: "Rentrée académique", Category: "academic", Published: true}))
	assert.False(t, qf.Match(news.News{Title: "Rentrée académique", Category: "sports", Published: true}))
}
