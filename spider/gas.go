package spider

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/scrapechat/models"
)

const lennoxBase = "https://www.lennoxpros.com"

// reMisencoded matches the mojibake characters the site's description blocks
// are littered with.
var reMisencoded = regexp.MustCompile(`[Ââ€¢™®]`)

// emitDescription gates the cleaned description field. The cleaning pipeline
// is kept for future display but the field is not part of the emitted record
// shape today.
const emitDescription = false

// GasSpider extracts the gas-furnace equipment catalog from lennoxpros.com.
// Listing pages pair product links with thumbnail images positionally — the
// nth link belongs to the nth thumbnail, an ordering the site markup must
// preserve. Detail pages contribute a flat specification table and derived
// product/listing names.
type GasSpider struct{}

// NewGasSpider returns the LennoxPros strategy.
func NewGasSpider() *GasSpider { return &GasSpider{} }

func (s *GasSpider) Name() string { return "gas" }

func (s *GasSpider) Seed(rawURL string) (string, error) { return rawURL, nil }

func (s *GasSpider) Classify(pageURL string) PageKind {
	if strings.Contains(pageURL, "/c/") {
		return KindListing
	}
	return KindDetail
}

type gasJob struct {
	url      string
	imageURL string
}

func (s *GasSpider) Run(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error {
	pageURL := seedURL
	firstPage := true

	for pageURL != "" {
		doc, err := f.Get(ctx, pageURL)
		if err != nil {
			if firstPage {
				return err
			}
			break
		}
		firstPage = false

		links := doc.Find(".inner a").Map(func(_ int, a *goquery.Selection) string {
			return attr(a, "href")
		})
		thumbs := doc.Find(".thumb img").Map(func(_ int, img *goquery.Selection) string {
			return attr(img, "src")
		})

		// Positional pairing: zip stops at the shorter list.
		n := len(links)
		if len(thumbs) < n {
			n = len(thumbs)
		}
		jobs := make([]gasJob, 0, n)
		for i := 0; i < n; i++ {
			jobs = append(jobs, gasJob{
				url:      absoluteURL(pageURL, links[i]),
				imageURL: absoluteURL(pageURL, thumbs[i]),
			})
		}

		for _, rec := range collectOrdered(ctx, jobs, func(j gasJob) (models.Record, bool) {
			product, err := f.Get(ctx, j.url)
			if err != nil {
				return nil, false
			}
			return s.parseProduct(product, j.url, j.imageURL), true
		}) {
			emit(rec)
		}

		next := attr(doc.Find("a.next").First(), "href")
		if next == "" {
			break
		}
		pageURL = lennoxBase + next
	}
	return nil
}

func (s *GasSpider) parseProduct(doc *goquery.Document, productURL, imageURL string) models.Record {
	rec := models.Record{}

	specs := map[string]string{}
	doc.Find(".specification-container").Each(func(_ int, row *goquery.Selection) {
		key := text(row.Find("span.title.col div").First())
		value := text(row.Find("span.description.col div").First())
		if key != "" && value != "" {
			specs[key] = value
		}
	})

	// Display name: brand + model, falling back to brand alone when the
	// model number is missing.
	brand := specs["Brand"]
	model := specs["Model/Part Number"]
	var productName string
	if model != "" {
		productName = brand + " " + model + " " + "Furnace"
	} else {
		productName = brand + " " + "Furnace"
	}
	productListingTitle := brand + " " + model + " " + specs["Gas Stages"] + " " + "Furance"

	rec.Set("Product Page_url", productURL)
	rec.Set("Product Image_url", imageURL)
	rec.Set("Image_Large", strings.ReplaceAll(imageURL, "?$product_related$", ""))
	rec.Set("Product Name", productName)
	rec.Set("Product Title", ownText(doc.Find("h1").First()))
	rec.Set("Product Listing Title", productListingTitle)
	for k, v := range specs {
		rec.Set(k, v)
	}

	if raw := outerHTML(doc.Find("div.col-12.col-xl-8.Product-overview").First()); raw != "" {
		if desc := cleanDescription(raw); emitDescription {
			rec.Set("Product Description", desc)
		}
	}

	return rec
}

var pdfLinkSelector = cascadia.MustCompile(`a[href]`)

// cleanDescription strips HTML comments, any div containing a PDF link, and
// the site's recurring mis-encoded characters from a raw description block.
func cleanDescription(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	for _, node := range doc.Selection.Nodes {
		removeComments(node)
	}

	doc.FindMatcher(pdfLinkSelector).Each(func(_ int, a *goquery.Selection) {
		if strings.Contains(attr(a, "href"), ".pdf") {
			if parent := a.ParentsFiltered("div").First(); parent.Length() > 0 {
				parent.Remove()
			}
		}
	})

	cleaned, err := doc.Html()
	if err != nil {
		return ""
	}
	cleaned = reMisencoded.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "\t", "")
	return strings.TrimSpace(cleaned)
}

func removeComments(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
			continue
		}
		removeComments(c)
	}
}

// outerHTML renders the selection's first node, tags included.
func outerHTML(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, s.Nodes[0]); err != nil {
		return ""
	}
	return buf.String()
}
