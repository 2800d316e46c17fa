package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/scrapechat/cache"
	"github.com/use-agent/scrapechat/config"
)

const probeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// probeOutcome is a cached validation verdict.
type probeOutcome struct {
	valid  bool
	reason string
}

// URLValidator checks that a target URL is syntactically sound and reachable
// before an extraction run is started. Verdicts are cached for a few minutes
// so re-submitting the same URL does not re-probe the site.
type URLValidator struct {
	client       *http.Client
	probeTimeout time.Duration
	retryTimeout time.Duration
	verdicts     *cache.Cache[probeOutcome]
}

// NewURLValidator builds a validator from fetch settings. The probe follows
// redirects and sends a desktop browser user agent so bot-hostile sites
// answer the way they would a real visitor.
func NewURLValidator(cfg config.FetchConfig) *URLValidator {
	return &URLValidator{
		client:       &http.Client{},
		probeTimeout: cfg.ProbeTimeout,
		retryTimeout: cfg.ProbeRetryTimeout,
		verdicts:     cache.New[probeOutcome](256, 5*time.Minute),
	}
}

// Validate reports whether rawURL is usable as a scrape target, with a
// human-readable reason when it is not.
//
// A malformed URL fails without any network traffic. A reachable URL is
// valid on any 2xx status and also on 403, since several supported sites
// refuse probes but serve the real fetcher fine. A timed-out probe is
// retried once with a longer timeout before giving up. Network failures
// never propagate as errors; they become reasons.
func (v *URLValidator) Validate(ctx context.Context, rawURL string) (bool, string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false, "Invalid URL format"
	}

	key := cache.Key("probe", rawURL)
	if verdict, hit := v.verdicts.Get(key); hit {
		return verdict.valid, verdict.reason
	}
	valid, reason := v.validate(ctx, rawURL)
	v.verdicts.Set(key, probeOutcome{valid: valid, reason: reason})
	return valid, reason
}

func (v *URLValidator) validate(ctx context.Context, rawURL string) (bool, string) {
	status, err := v.probe(ctx, rawURL, v.probeTimeout)
	if err != nil {
		if !isTimeout(err) {
			return false, "Could not connect to the website. Please check the URL and try again."
		}
		status, err = v.probe(ctx, rawURL, v.retryTimeout)
		if err != nil {
			if isTimeout(err) {
				return false, "Request timed out. The website is taking too long to respond."
			}
			return false, "Could not connect to the website. Please check the URL and try again."
		}
	}

	if (status >= 200 && status < 300) || status == http.StatusForbidden {
		return true, "URL is valid"
	}
	return false, fmt.Sprintf("URL returned status code %d", status)
}

func (v *URLValidator) probe(ctx context.Context, rawURL string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", probeUA)

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
