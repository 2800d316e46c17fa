package spider

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scrapechat/models"
)

const cnnBase = "https://www.cnn.com"

// CnnSpider extracts news articles from cnn.com. The seed is a section page
// enumerating article links; each article yields one record with title,
// description (page metadata with a first-paragraph fallback), deduplicated
// responsive-image URLs, video sources and the joined body text.
type CnnSpider struct{}

// NewCnnSpider returns the CNN strategy.
func NewCnnSpider() *CnnSpider { return &CnnSpider{} }

func (s *CnnSpider) Name() string { return "cnn" }

func (s *CnnSpider) Seed(rawURL string) (string, error) { return rawURL, nil }

func (s *CnnSpider) Classify(pageURL string) PageKind {
	// Article URLs are date-prefixed; anything else is treated as a section
	// listing to harvest article links from.
	if strings.Contains(pageURL, "/202") {
		return KindDetail
	}
	return KindListing
}

func (s *CnnSpider) Run(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error {
	doc, err := f.Get(ctx, seedURL)
	if err != nil {
		return err
	}

	var articleURLs []string
	seen := map[string]struct{}{}
	doc.Find("a.container__link").Each(func(_ int, a *goquery.Selection) {
		href := attr(a, "href")
		if !strings.HasPrefix(href, "/202") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		articleURLs = append(articleURLs, absoluteURL(cnnBase, href))
	})

	for _, rec := range collectOrdered(ctx, articleURLs, func(articleURL string) (models.Record, bool) {
		article, err := f.Get(ctx, articleURL)
		if err != nil {
			return nil, false
		}
		return s.parseArticle(article, articleURL), true
	}) {
		emit(rec)
	}
	return nil
}

func (s *CnnSpider) parseArticle(doc *goquery.Document, articleURL string) models.Record {
	rec := models.Record{}
	rec.Set("url", articleURL)
	rec.Set("title", text(doc.Find("h1.headline__text").First()))
	rec.Set("description", First(
		func() string { return attr(doc.Find(`meta[name="description"]`).First(), "content") },
		func() string { return ownText(doc.Find("p.paragraph").First()) },
	))
	rec.Set("images", extractArticleImages(doc))
	rec.Set("videos", extractArticleVideos(doc))
	rec.Set("text", extractArticleText(doc))
	return rec
}

// extractArticleImages pulls image URLs from the responsive-image source
// lists, stripping size query parameters and deduplicating.
func extractArticleImages(doc *goquery.Document) []string {
	var images []string
	seen := map[string]struct{}{}
	doc.Find("div.image__container picture source").Each(func(_ int, src *goquery.Selection) {
		imgURL := stripQuery(attr(src, "srcset"))
		if !strings.HasPrefix(imgURL, "http") {
			return
		}
		if _, dup := seen[imgURL]; dup {
			return
		}
		seen[imgURL] = struct{}{}
		images = append(images, imgURL)
	})
	return images
}

func extractArticleVideos(doc *goquery.Document) []string {
	var videos []string
	doc.Find("div.media__video source").Each(func(_ int, src *goquery.Selection) {
		if v := attr(src, "src"); strings.HasPrefix(v, "http") {
			videos = append(videos, v)
		}
	})
	return videos
}

// extractArticleText joins all body paragraphs with single spaces.
func extractArticleText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p.paragraph").Each(func(_ int, p *goquery.Selection) {
		if t := ownText(p); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
