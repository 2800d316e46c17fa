package spider

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scrapechat/models"
)

// notAvailable is the explicit sentinel eBay records carry for absent fields.
// Unlike the other strategies, this one keeps sentinels instead of dropping
// the field — consumers of these records key on that shape.
const notAvailable = "N/A"

// EbaySpider extracts products from ebay.com category/listing pages: it
// paginates the listing and pulls title, price, condition, seller, shipping,
// description, a nested section→field specification map, optional key-feature
// bullets and an optional rating summary per product.
type EbaySpider struct{}

// NewEbaySpider returns the eBay strategy.
func NewEbaySpider() *EbaySpider { return &EbaySpider{} }

func (s *EbaySpider) Name() string { return "ebay_items" }

func (s *EbaySpider) Seed(rawURL string) (string, error) { return rawURL, nil }

func (s *EbaySpider) Classify(pageURL string) PageKind {
	if strings.Contains(pageURL, "/itm/") {
		return KindDetail
	}
	return KindListing
}

func (s *EbaySpider) Run(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error {
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

		var productURLs []string
		doc.Find("div.brwrvr__item-card__image-wrapper a").Each(func(_ int, a *goquery.Selection) {
			if href := attr(a, "href"); href != "" {
				productURLs = append(productURLs, href)
			}
		})

		for _, rec := range collectOrdered(ctx, productURLs, func(productURL string) (models.Record, bool) {
			product, err := f.Get(ctx, absoluteURL(pageURL, productURL))
			if err != nil {
				return nil, false
			}
			return s.parseProduct(product, productURL), true
		}) {
			emit(rec)
		}

		next := attr(doc.Find("a.pagination__next").First(), "href")
		if next == "" {
			break
		}
		pageURL = absoluteURL(pageURL, next)
	}
	return nil
}

func (s *EbaySpider) parseProduct(doc *goquery.Document, productURL string) models.Record {
	rec := models.Record{}
	rec.Set("url", productURL)
	rec.Set("title", orNA(text(doc.Find("h1.x-item-title__mainTitle span").First())))
	rec.Set("price", orNA(text(doc.Find("div.x-price-primary span.ux-textspans").First())))
	rec.Set("condition", orNA(text(doc.Find("div.x-item-condition-text div.ux-textspans").First())))
	rec.Set("seller_info", map[string]string{
		"name":           orNA(text(doc.Find("div.ux-seller-section__item--seller a.ux-seller-section__link span").First())),
		"feedback_score": orNA(text(doc.Find("div.ux-seller-section__item--seller div.ux-seller-section__feedback span").First())),
	})
	rec.Set("shipping_info", orNA(ownText(doc.Find("div.ux-labels-values__values div.ux-labels-values__value").First())))
	// Description and specifications stay present even when empty; this
	// strategy's record shape is sentinel-keeping, not field-dropping.
	rec["description"] = strings.TrimSpace(doc.Find("div.item-description div.ux-layout-section-evo__item--content").Text())
	rec["specifications"] = extractProductSpecs(doc)

	features := doc.Find("div.ux-layout-section--features div.ux-layout-section__item--features div.ux-layout-section-evo__col")
	if features.Length() > 0 {
		var keyFeatures []string
		features.Each(func(_ int, col *goquery.Selection) {
			if t := text(col.Find("span").First()); t != "" {
				keyFeatures = append(keyFeatures, t)
			}
		})
		rec.Set("key_features", keyFeatures)
	}

	if ratings := doc.Find("div.ebay-review-section"); ratings.Length() > 0 {
		average := attr(ratings.Find("span.review-item-stars span").First(), "aria-label")
		rec.Set("ratings", map[string]string{
			"average": orNA(average),
			"count":   orNA(text(ratings.Find("a.review-item-count span").First())),
		})
	}

	return rec
}

// extractProductSpecs builds the nested section → field → value map from the
// product details sections.
func extractProductSpecs(doc *goquery.Document) map[string]map[string]string {
	specs := map[string]map[string]string{}
	doc.Find("div.x-prp-product-details_section").Each(func(_ int, section *goquery.Selection) {
		title := text(section.Find("h3 span").First())
		if title == "" {
			return
		}
		group := map[string]string{}
		section.Find("div.x-prp-product-details_row div.x-prp-product-details_col").Each(func(_ int, col *goquery.Selection) {
			name := text(col.Find("span.x-prp-product-details_name span").First())
			value := text(col.Find("span.x-prp-product-details_value span").First())
			if name != "" && value != "" {
				group[name] = value
			}
		})
		specs[title] = group
	})
	return specs
}

// orNA degrades an absent field to the explicit sentinel.
func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
