package spider

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapechat/models"
)

type countingFetcher struct {
	calls int
}

func (c *countingFetcher) Get(context.Context, string) (*goquery.Document, error) {
	c.calls++
	return goquery.NewDocumentFromReader(strings.NewReader("<html></html>"))
}

func TestWithBudget(t *testing.T) {
	inner := &countingFetcher{}
	f := WithBudget(inner, 3)

	for i := 0; i < 3; i++ {
		_, err := f.Get(context.Background(), "https://example.com")
		require.NoError(t, err)
	}

	_, err := f.Get(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrPageBudget)
	assert.Equal(t, 3, inner.calls)
}

func TestCollectOrderedPreservesOrder(t *testing.T) {
	jobs := []int{0, 1, 2, 3, 4, 5, 6, 7}

	records := collectOrdered(context.Background(), jobs, func(i int) (models.Record, bool) {
		if i == 3 {
			return nil, false // skipped jobs leave no gap
		}
		return models.Record{"n": i}, true
	})

	require.Len(t, records, 7)
	want := []int{0, 1, 2, 4, 5, 6, 7}
	for i, rec := range records {
		assert.Equal(t, want[i], rec["n"])
	}
}
