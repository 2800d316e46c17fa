package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/scrapechat/models"
)

func TestResolveIntentScrapeDetection(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{
			name:    "url without scrape keyword is a question",
			message: "what do you think of https://www.pakwheels.com/used-cars/?",
			want:    Intent{},
		},
		{
			name:    "scrape keyword without url is a question",
			message: "can you scrape websites?",
			want:    Intent{},
		},
		{
			name:    "scrape request with format",
			message: "scrape https://www.pakwheels.com/used-cars/search/-/ in json format",
			want: Intent{
				IsScrape:  true,
				URL:       "https://www.pakwheels.com/used-cars/search/-/",
				Format:    models.FormatJSON,
				HasFormat: true,
			},
		},
		{
			name:    "scrape request without format",
			message: "please scrape https://edition.cnn.com/world",
			want: Intent{
				IsScrape: true,
				URL:      "https://edition.cnn.com/world",
			},
		},
		{
			name:    "trailing punctuation stripped from url",
			message: "Scrape https://www.lennoxpros.com/gas-furnaces/c/123, please!",
			want: Intent{
				IsScrape: true,
				URL:      "https://www.lennoxpros.com/gas-furnaces/c/123",
			},
		},
		{
			name:    "pakwheels nf query stripped",
			message: "scrape https://www.pakwheels.com/used-cars/search/-/?nf=true as csv",
			want: Intent{
				IsScrape:  true,
				URL:       "https://www.pakwheels.com/used-cars/search/-/",
				Format:    models.FormatCSV,
				HasFormat: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIntent(tt.message, ""))
		})
	}
}

func TestResolveIntentPriorSelection(t *testing.T) {
	got := ResolveIntent("scrape https://edition.cnn.com/world", "xml")
	assert.True(t, got.HasFormat)
	assert.Equal(t, models.FormatXML, got.Format)

	// A format named in the message wins over the prior selection.
	got = ResolveIntent("scrape https://edition.cnn.com/world as json", "xml")
	assert.Equal(t, models.FormatJSON, got.Format)
}

func TestResolveIntentFormatVariants(t *testing.T) {
	for _, msg := range []string{
		"scrape https://edition.cnn.com/world in json",
		"scrape https://edition.cnn.com/world and give me a json file",
		"scrape https://edition.cnn.com/world as .json",
	} {
		got := ResolveIntent(msg, "")
		assert.True(t, got.HasFormat, msg)
		assert.Equal(t, models.FormatJSON, got.Format, msg)
	}
}
