package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/spider"
)

type stubFetcher struct{}

func (stubFetcher) Get(context.Context, string) (*goquery.Document, error) {
	return nil, errors.New("no network in tests")
}

type stubSpider struct {
	name    string
	records []models.Record
	runErr  error
	seedErr error
}

func (s *stubSpider) Name() string { return s.name }

func (s *stubSpider) Seed(rawURL string) (string, error) {
	if s.seedErr != nil {
		return "", s.seedErr
	}
	return rawURL, nil
}

func (s *stubSpider) Classify(string) spider.PageKind { return spider.KindListing }

func (s *stubSpider) Run(_ context.Context, _ spider.Fetcher, _ string, emit func(models.Record)) error {
	if s.runErr != nil {
		return s.runErr
	}
	for _, rec := range s.records {
		emit(rec)
	}
	return nil
}

func testConfig() config.FetchConfig {
	return config.FetchConfig{RunTimeout: time.Minute, MaxPages: 10}
}

func TestRunSucceeded(t *testing.T) {
	tmp := t.TempDir()
	o := New(stubFetcher{}, testConfig(), tmp)
	sp := &stubSpider{name: "cars", records: []models.Record{{"title": "a"}, {"title": "b"}}}

	result, outcome, err := o.Run(context.Background(), sp, "https://www.pakwheels.com/used-cars/")
	require.NoError(t, err)
	assert.Equal(t, Succeeded, outcome)
	require.NotNil(t, result)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, "a", result.Records[0]["title"])

	assertNoSpoolFiles(t, tmp)
}

func TestRunEmptyResultIsNotFailure(t *testing.T) {
	tmp := t.TempDir()
	o := New(stubFetcher{}, testConfig(), tmp)
	sp := &stubSpider{name: "cnn"}

	result, outcome, err := o.Run(context.Background(), sp, "https://edition.cnn.com/world")
	require.NoError(t, err)
	assert.Equal(t, EmptyResult, outcome)
	require.NotNil(t, result)
	assert.True(t, result.IsEmpty())

	assertNoSpoolFiles(t, tmp)
}

func TestRunFailed(t *testing.T) {
	tmp := t.TempDir()
	o := New(stubFetcher{}, testConfig(), tmp)
	sp := &stubSpider{name: "gas", runErr: errors.New("fetch: HTTP 503")}

	result, outcome, err := o.Run(context.Background(), sp, "https://www.lennoxpros.com/c/1")
	require.Error(t, err)
	assert.Equal(t, Failed, outcome)
	assert.Nil(t, result)

	chatErr, ok := models.AsChatError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrCodeExtractionFailed, chatErr.Code)

	// The spool file is cleaned up on the failure path too.
	assertNoSpoolFiles(t, tmp)
}

func TestRunSeedFailure(t *testing.T) {
	tmp := t.TempDir()
	o := New(stubFetcher{}, testConfig(), tmp)
	sp := &stubSpider{name: "cars", seedErr: errors.New("bad url")}

	_, outcome, err := o.Run(context.Background(), sp, "::")
	require.Error(t, err)
	assert.Equal(t, Failed, outcome)
}

func assertNoSpoolFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
