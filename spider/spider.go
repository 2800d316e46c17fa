package spider

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scrapechat/models"
)

// PageKind classifies a page URL within a strategy's site.
type PageKind int

const (
	// KindUnsupported means the strategy cannot handle the page.
	KindUnsupported PageKind = iota

	// KindListing is a page enumerating multiple entities with detail links.
	KindListing

	// KindDetail is a page describing one entity fully.
	KindDetail
)

// Fetcher retrieves a page as a parsed document. Implementations are
// responsible for rate limiting, timeouts and fan-out bounds; strategies
// treat every Get as a potentially slow network call.
type Fetcher interface {
	Get(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Spider is a site-specific extraction strategy.
//
// Seed normalizes the user-supplied URL into the actual crawl seed exactly
// once, before any fetch. Run drives the whole extraction from that seed and
// emits each completed record in discovery order. Run must never fail on a
// missing page element: per-field extraction degrades to empty or a sentinel,
// and only fetch-level errors propagate.
type Spider interface {
	Name() string
	Seed(rawURL string) (string, error)
	Classify(pageURL string) PageKind
	Run(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error
}

// detailWorkers bounds how many detail pages one listing processes at a time.
// The Fetcher applies its own global fan-out bound on top of this.
const detailWorkers = 4

// collectOrdered fetches and parses detail pages concurrently while keeping
// the records in the same order as jobs. fn returns false to skip a job
// (fetch failed or the page yielded nothing usable).
func collectOrdered[T any](ctx context.Context, jobs []T, fn func(T) (models.Record, bool)) []models.Record {
	type slot struct {
		rec models.Record
		ok  bool
	}
	slots := make([]slot, len(jobs))

	workers := detailWorkers
	if len(jobs) < workers {
		workers = len(jobs)
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				rec, ok := fn(jobs[i])
				slots[i] = slot{rec: rec, ok: ok}
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case idx <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idx)
	wg.Wait()

	records := make([]models.Record, 0, len(jobs))
	for _, s := range slots {
		if s.ok {
			records = append(records, s.rec)
		}
	}
	return records
}
