package spider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.pakwheels.com/used-cars/search/-/", "cars"},
		{"https://WWW.PAKWHEELS.COM/used-cars/", "cars"},
		{"https://www.ebay.com/b/Laptops/175672", "ebay_items"},
		{"https://www.ebay.co.uk/b/Phones/9355", "ebay_items"},
		{"https://www.lennoxpros.com/hvac/gas-furnaces/c/123", "gas"},
		{"https://edition.cnn.com/world", "cnn"},
		{"https://www.cnn.com/politics", "cnn"},
	}

	for _, tt := range tests {
		name, ok := r.Resolve(tt.url)
		require.True(t, ok, "Resolve(%q)", tt.url)
		assert.Equal(t, tt.want, name, "Resolve(%q)", tt.url)
	}
}

func TestRegistryResolveUnsupported(t *testing.T) {
	r := NewRegistry()

	for _, u := range []string{
		"https://example.com/listing",
		"https://www.amazon.com/dp/B01",
		"not a url",
	} {
		_, ok := r.Resolve(u)
		assert.False(t, ok, "Resolve(%q)", u)
	}
}

func TestRegistrySpiderLookup(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"cars", "ebay_items", "gas", "cnn"} {
		sp, ok := r.Spider(name)
		require.True(t, ok, name)
		assert.Equal(t, name, sp.Name())
	}

	_, ok := r.Spider("unknown")
	assert.False(t, ok)
}
