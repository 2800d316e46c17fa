package spider

import (
	"net/url"
	"strings"
)

type registryEntry struct {
	name     string
	patterns []string
}

// Registry maps a URL's domain to a named strategy via ordered pattern
// matching. Resolution is deterministic: entries are tested in registration
// order and the first entry with any pattern matching the host wins.
// Read-only after startup.
type Registry struct {
	entries []registryEntry
	spiders map[string]Spider
}

// NewRegistry returns a registry with the four shipped strategies.
func NewRegistry() *Registry {
	r := &Registry{spiders: make(map[string]Spider)}
	r.Register(NewCarsSpider(), "pakwheels.com", "pakwheels.com.pk")
	r.Register(NewEbaySpider(), "ebay.com", "ebay.co.uk", "ebay.de")
	r.Register(NewGasSpider(), "lennoxpros.com")
	r.Register(NewCnnSpider(), "edition.cnn.com", "cnn.com")
	return r
}

// Register appends a strategy with its domain patterns.
func (r *Registry) Register(s Spider, domainPatterns ...string) {
	r.entries = append(r.entries, registryEntry{name: s.Name(), patterns: domainPatterns})
	r.spiders[s.Name()] = s
}

// Resolve returns the name of the first strategy whose pattern set matches
// the URL's host. Host matching is case-insensitive; scheme and path are
// ignored. The second return is false when no strategy matches — an
// unsupported site, not an error.
func (r *Registry) Resolve(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	for _, e := range r.entries {
		for _, p := range e.patterns {
			if strings.Contains(host, p) {
				return e.name, true
			}
		}
	}
	return "", false
}

// Spider returns the registered strategy by name.
func (r *Registry) Spider(name string) (Spider, bool) {
	s, ok := r.spiders[name]
	return s, ok
}
