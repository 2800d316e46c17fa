package spider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/time/rate"

	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/monitoring"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a page body is read.
const maxBodyBytes = 10 * 1024 * 1024

// ErrPageBudget is returned by a budgeted fetcher once a run has spent its
// page-fetch allowance. Strategies treat it as "stop following links", not
// as a failed run.
var ErrPageBudget = errors.New("page fetch budget exhausted")

// HTTPFetcher fetches pages with a desktop-Chrome user agent and a Chrome
// TLS fingerprint (utls). It enforces a mandatory inter-request delay and a
// bounded fan-out across all concurrent strategy runs.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
}

// NewHTTPFetcher creates the process-wide page fetcher.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.PageTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		sem:     make(chan struct{}, cfg.Concurrency),
	}
}

// Get fetches pageURL and parses it into a goquery document.
func (f *HTTPFetcher) Get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch: HTTP %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse body: %w", err)
	}
	if u, perr := url.Parse(pageURL); perr == nil {
		doc.Url = u
	}
	monitoring.PagesFetchedTotal.Inc()
	return doc, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls, so sites that fingerprint TLS handshakes see a regular browser.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName:         host,
		InsecureSkipVerify: false,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// budgetFetcher decorates a Fetcher with a per-run page allowance.
type budgetFetcher struct {
	inner     Fetcher
	remaining atomic.Int64
}

// WithBudget wraps f so that at most maxPages fetches succeed; further calls
// return ErrPageBudget. Each run gets its own budget.
func WithBudget(f Fetcher, maxPages int) Fetcher {
	b := &budgetFetcher{inner: f}
	b.remaining.Store(int64(maxPages))
	return b
}

func (b *budgetFetcher) Get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if b.remaining.Add(-1) < 0 {
		return nil, ErrPageBudget
	}
	return b.inner.Get(ctx, pageURL)
}
