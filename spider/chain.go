package spider

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// First evaluates the attempts in order and returns the first non-empty
// result. It is the shared combinator behind every per-field fallback chain
// (structured-data block → labeled text → positional guess); later attempts
// are not evaluated once one succeeds.
func First(attempts ...func() string) string {
	for _, attempt := range attempts {
		if v := strings.TrimSpace(attempt()); v != "" {
			return v
		}
	}
	return ""
}

// cleanLabel turns a visible field label into a record key:
// trimmed, colon stripped, spaces to underscores, lowercased.
func cleanLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.ReplaceAll(label, ":", "")
	label = strings.ReplaceAll(label, " ", "_")
	return strings.ToLower(label)
}

// text returns the trimmed full text of the selection.
func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// ownText returns the trimmed concatenation of the selection's direct text
// nodes, ignoring text inside child elements.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizedText collapses all whitespace runs in the selection's text to
// single spaces, like XPath normalize-space().
func normalizedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// attr returns the trimmed attribute value, or "" when absent.
func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// absoluteURL resolves href against base. Unresolvable hrefs are returned
// unchanged so a malformed link degrades instead of failing the record.
func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	resolved, err := b.Parse(href)
	if err != nil {
		return href
	}
	return resolved.String()
}

// stripQuery removes everything from '?' onwards.
func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
