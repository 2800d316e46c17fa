package chat

import (
	"regexp"
	"strings"

	"github.com/use-agent/scrapechat/models"
)

// reURL matches the first URL-looking token in a message.
var reURL = regexp.MustCompile(`https?://\S+`)

// scrapeKeyword must appear somewhere in the message for it to count as a
// scrape request; a bare URL is treated as a regular question.
const scrapeKeyword = "scrape"

// urlTrimCutset strips trailing sentence punctuation that users attach to
// pasted URLs.
const urlTrimCutset = ",.!?; "

// formatKeywords maps each output format to the phrasings users write it as.
// Matching is substring-based on the lowercased message.
var formatKeywords = map[models.OutputFormat][]string{
	models.FormatJSON: {"json", ".json", "in json", "json format", "json file"},
	models.FormatCSV:  {"csv", ".csv", "in csv", "csv format", "csv file"},
	models.FormatXML:  {"xml", ".xml", "in xml", "xml format", "xml file"},
}

// Intent is the resolved meaning of one chat message.
type Intent struct {
	IsScrape bool
	URL      string
	Format   models.OutputFormat
	// HasFormat reports whether Format was resolved, from the message itself
	// or from a prior format selection.
	HasFormat bool
}

// ResolveIntent classifies a message as a scrape request or a plain question
// and, for scrape requests, extracts the target URL and output format.
// priorSelection is the format the user chose on an earlier suspended turn,
// if any; a format named in the message wins over it.
func ResolveIntent(message, priorSelection string) Intent {
	lower := strings.ToLower(message)

	match := reURL.FindString(message)
	if match == "" || !strings.Contains(lower, scrapeKeyword) {
		return Intent{}
	}

	targetURL := strings.TrimRight(match, urlTrimCutset)
	targetURL = normalizeTarget(targetURL)

	intent := Intent{IsScrape: true, URL: targetURL}
	if f, ok := detectFormat(lower); ok {
		intent.Format = f
		intent.HasFormat = true
	} else if f, ok := models.ParseFormat(strings.ToLower(strings.TrimSpace(priorSelection))); ok {
		intent.Format = f
		intent.HasFormat = true
	}
	return intent
}

// detectFormat scans the lowercased message for format phrasings, in the
// order formats are offered to the user.
func detectFormat(lowerMessage string) (models.OutputFormat, bool) {
	for _, f := range models.SupportedFormats {
		for _, kw := range formatKeywords[f] {
			if strings.Contains(lowerMessage, kw) {
				return f, true
			}
		}
	}
	return "", false
}

// normalizeTarget applies site-specific URL fixes done before validation.
// PakWheels "new filter" links carry an nf=true query that breaks paging, so
// the whole query string is dropped for those.
func normalizeTarget(targetURL string) string {
	if strings.Contains(targetURL, "pakwheels") && strings.Contains(targetURL, "?nf=true") {
		if i := strings.Index(targetURL, "?"); i >= 0 {
			return targetURL[:i]
		}
	}
	return targetURL
}
