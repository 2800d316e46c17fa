package spider

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/scrapechat/models"
)

const pakwheelsBase = "https://www.pakwheels.com"

var (
	reVehicleDetail = regexp.MustCompile(`/(used-cars|used-bikes)/[^/]+/\d+/`)
	reCityListing   = regexp.MustCompile(`/(used-cars|used-bikes)/[a-z-]+/$`)
	reFirstNumber   = regexp.MustCompile(`[\d.]+`)
	reNonDigit      = regexp.MustCompile(`[^\d]`)
)

// CarsSpider extracts used and new vehicle listings from pakwheels.com.
//
// It is the most involved strategy: listing cards carry a basic-info snapshot
// resolved through a three-tier fallback per field (embedded JSON-LD block →
// visible labeled specs → positional guess on the visible spec list), which
// the detail page then merges with the full specification table, grouped
// detailed-specification and feature sections, a deduplicated image list and
// free-text seller comments.
type CarsSpider struct{}

// NewCarsSpider returns the pakwheels strategy.
func NewCarsSpider() *CarsSpider { return &CarsSpider{} }

func (s *CarsSpider) Name() string { return "cars" }

// Seed normalizes the user-supplied URL into the crawl seed. This runs
// exactly once before dispatch: query parameters are dropped, bare category
// roots get the search suffix, and new-vehicle URLs get the any/any search
// shape. Search and city/region listing URLs pass through unchanged.
func (s *CarsSpider) Seed(rawURL string) (string, error) {
	base := stripQuery(rawURL)

	if reVehicleDetail.MatchString(base) {
		return base, nil
	}

	if strings.Contains(base, "/used-cars/") || strings.Contains(base, "/used-bikes/") {
		switch {
		case strings.Contains(base, "/search/"):
		case reCityListing.MatchString(base):
		case strings.HasSuffix(base, "used-cars/") || strings.HasSuffix(base, "used-bikes/"):
			return strings.TrimRight(base, "/") + "/search/-/", nil
		}
		return base, nil
	}

	if strings.Contains(base, "/new-bikes/") {
		if !strings.HasSuffix(base, "bikes/search/make_any/model_any/price_any_any/") {
			return strings.Replace(base, "/new-bikes/", "/search/make_any/model_any/price_any_any/", 1), nil
		}
		return base, nil
	}

	if strings.Contains(base, "/new-cars/") {
		if !strings.HasSuffix(base, "search/make_any/model_any/price_any_any/") {
			return strings.TrimRight(base, "/") + "/search/make_any/model_any/price_any_any/", nil
		}
	}

	return base, nil
}

func (s *CarsSpider) Classify(pageURL string) PageKind {
	base := stripQuery(pageURL)
	if reVehicleDetail.MatchString(base) {
		return KindDetail
	}
	if strings.Contains(base, "/used-cars/") || strings.Contains(base, "/used-bikes/") ||
		strings.Contains(base, "/new-cars/") || strings.Contains(base, "/bikes/") {
		return KindListing
	}
	return KindUnsupported
}

func (s *CarsSpider) Run(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error {
	switch s.Classify(seedURL) {
	case KindDetail:
		doc, err := f.Get(ctx, seedURL)
		if err != nil {
			return err
		}
		emit(s.parseUsedDetail(doc, models.Record{}))
		return nil
	case KindListing:
		return s.runListing(ctx, f, seedURL, emit)
	default:
		return errors.New("cars: unknown page type: " + seedURL)
	}
}

type carJob struct {
	url   string
	basic models.Record
	used  bool
}

func (s *CarsSpider) runListing(ctx context.Context, f Fetcher, seedURL string, emit func(models.Record)) error {
	pageURL := seedURL
	firstPage := true

	for pageURL != "" {
		doc, err := f.Get(ctx, pageURL)
		if err != nil {
			if firstPage {
				return err
			}
			break // keep what earlier pages yielded
		}
		firstPage = false

		var jobs []carJob
		used := strings.Contains(pageURL, "/used-cars/") || strings.Contains(pageURL, "/used-bikes/")
		if used {
			doc.Find("li.classified-listing").Each(func(_ int, card *goquery.Selection) {
				if href := attr(card.Find("a.car-name").First(), "href"); href != "" {
					jobs = append(jobs, carJob{
						url:   absoluteURL(pakwheelsBase, href),
						basic: s.extractBasicInfo(card),
						used:  true,
					})
				}
			})
		} else {
			doc.Find("li > div.new-car-box").Each(func(_ int, card *goquery.Selection) {
				if href := attr(card.Find("a.car-name").First(), "href"); href != "" {
					jobs = append(jobs, carJob{
						url:   absoluteURL(pakwheelsBase, href),
						basic: s.extractNewBasicInfo(card),
					})
				}
			})
		}

		for _, rec := range collectOrdered(ctx, jobs, func(j carJob) (models.Record, bool) {
			detail, err := f.Get(ctx, j.url)
			if err != nil {
				return nil, false
			}
			if j.used {
				return s.parseUsedDetail(detail, j.basic), true
			}
			return s.parseNewDetail(detail, j.basic), true
		}) {
			emit(rec)
		}

		next := attr(doc.Find("a.next_page").First(), "href")
		if next == "" {
			break
		}
		pageURL = absoluteURL(pageURL, next)
	}
	return nil
}

// extractBasicInfo pulls the basic-info snapshot from a used-vehicle listing
// card. Per-field resolution: JSON-LD block first, then the visible spec list
// positionally (nth item assumed to be a known field when no label exists —
// the site's markup order is load-bearing here).
func (s *CarsSpider) extractBasicInfo(card *goquery.Selection) models.Record {
	rec := models.Record{}
	rec.Set("listing_url", absoluteURL(pakwheelsBase, attr(card.Find("a.car-name").First(), "href")))
	rec.Set("title", text(card.Find("a.car-name h3").First()))
	rec.Set("price", parsePrice(ownText(card.Find(".price-details"))))
	rec.Set("city", ownText(card.Find(".search-vehicle-info li").First()))
	if strings.Contains(attr(card, "class"), "featured") {
		rec.Set("is_featured", true)
	}
	rec.Set("updated_time", strings.TrimSpace(strings.ReplaceAll(ownText(card.Find(".dated").First()), "Updated", "")))
	rec.Set("listing_type", "used")

	ld := parseJSONLD(card)
	rec.Set("brand", ldString(ld, "brand", "name"))
	rec.Set("condition", ldString(ld, "itemCondition"))
	rec.Set("manufacturer", ldString(ld, "manufacturer"))

	specs := card.Find(".search-vehicle-info-2 li").Map(func(_ int, li *goquery.Selection) string {
		return ownText(li)
	})
	spec := func(i int) func() string {
		return func() string {
			if i < len(specs) {
				return specs[i]
			}
			return ""
		}
	}

	rec.Set("year", First(
		func() string { return ldString(ld, "modelDate") },
		spec(0),
	))
	rec.Set("mileage", First(
		func() string { return stripUnits(ldString(ld, "mileageFromOdometer"), ",", " km") },
		func() string { return stripUnits(spec(1)(), ",", " km") },
	))
	rec.Set("fuel_type", First(
		func() string { return ldString(ld, "fuelType") },
		spec(2),
	))
	rec.Set("engine_cc", First(
		func() string { return stripUnits(ldString(ld, "vehicleEngine", "engineDisplacement"), "cc") },
		func() string { return stripUnits(spec(3)(), "cc") },
	))
	rec.Set("transmission", First(
		func() string { return ldString(ld, "vehicleTransmission") },
		spec(4),
	))

	return rec
}

// extractNewBasicInfo pulls the basic-info snapshot from a new-vehicle
// listing card. New cards have no positional fallback: JSON-LD only, plus the
// raw visible spec strings kept as a list.
func (s *CarsSpider) extractNewBasicInfo(card *goquery.Selection) models.Record {
	rec := models.Record{}
	rec.Set("listing_url", absoluteURL(pakwheelsBase, attr(card.Find("a.car-name").First(), "href")))
	rec.Set("title", text(card.Find("a.car-name h3").First()))
	rec.Set("price", parsePrice(ownText(card.Find(".price-details"))))
	rec.Set("listing_type", "new")

	ld := parseJSONLD(card)
	rec.Set("brand", ldString(ld, "brand", "name"))
	rec.Set("model", ldString(ld, "model"))
	rec.Set("year", ldString(ld, "modelDate"))
	rec.Set("manufacturer", ldString(ld, "manufacturer"))
	rec.Set("fuel_type", ldString(ld, "vehicleEngine", "fuelType"))
	rec.Set("engine_cc", ldString(ld, "vehicleEngine", "engineDisplacement", "value"))
	rec.Set("category", ldString(ld, "category"))

	var specs []string
	card.Find(".ad-specs li").Each(func(_ int, li *goquery.Selection) {
		if v := ownText(li); v != "" {
			specs = append(specs, v)
		}
	})
	rec.Set("specs", specs)

	return rec
}

// parseUsedDetail merges the basic-info snapshot with everything the used
// vehicle detail page offers.
func (s *CarsSpider) parseUsedDetail(doc *goquery.Document, basic models.Record) models.Record {
	rec := models.Record{}
	rec.Merge(basic)

	// Main spec list pairs label items with value items by position.
	group := doc.Find("#scroll_car_detail")
	labels := group.Find("li.ad-data").Map(func(_ int, li *goquery.Selection) string {
		return ownText(li)
	})
	values := group.Find("li:not(.ad-data)").Map(func(_ int, li *goquery.Selection) string {
		return normalizedText(li)
	})
	for i := 0; i < len(labels) || i < len(values); i++ {
		var label, value string
		if i < len(labels) {
			label = labels[i]
		}
		if i < len(values) {
			value = values[i]
		}
		if key := cleanLabel(label); key != "" && strings.TrimSpace(value) != "" {
			rec.Set(key, strings.TrimSpace(value))
		}
	}

	rec.Set("detailed_specifications", extractSpecSections(doc.Find(".specs-wrapper")))
	rec.Set("features", extractSpecSections(doc.Find("#carfeatures .specs-wrapper")))
	rec.Set("images", extractVehicleImages(doc))
	rec.Set("seller_comments", extractSellerComments(doc))

	return rec
}

// parseNewDetail merges the basic-info snapshot with the new vehicle detail
// page: striped spec table, grouped sections, images and JSON-LD extras.
func (s *CarsSpider) parseNewDetail(doc *goquery.Document, basic models.Record) models.Record {
	rec := models.Record{}
	rec.Merge(basic)

	doc.Find(".table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		label := ownText(row.Find("td:first-child").First())
		value := ownText(row.Find("td:last-child").First())
		if key := cleanLabel(label); key != "" && value != "" {
			rec.Set(key, value)
		}
	})

	rec.Set("detailed_specifications", extractSpecSections(doc.Find(".specs-wrapper")))
	rec.Set("features", extractSpecSections(doc.Find("#carfeatures .specs-wrapper")))
	rec.Set("images", extractVehicleImages(doc))

	ld := parseJSONLD(doc.Selection)
	rec.Set("description", ldString(ld, "description"))
	rec.Set("colors", ldStrings(ld, "color"))
	rec.Set("fuel_capacity", ldString(ld, "fuelCapacity", "value"))
	rec.Set("fuel_efficiency", ldString(ld, "fuelEfficiency", "value"))
	rec.Set("top_speed", ldString(ld, "speed", "maxValue"))
	dims := map[string]string{}
	for _, d := range []string{"width", "height", "wheelbase"} {
		if v := ldString(ld, d, "value"); v != "" {
			dims[d] = v
		}
	}
	rec.Set("dimensions", dims)
	rec.Set("weight", ldString(ld, "weight", "value"))

	return rec
}

// extractSpecSections walks grouped specification sections: a heading names
// the group, table rows pair a label with a value. Rows whose value cell only
// holds a checkbox icon translate to Yes/No.
func extractSpecSections(sections *goquery.Selection) map[string]map[string]string {
	out := map[string]map[string]string{}
	sections.Each(func(_ int, section *goquery.Selection) {
		name := text(section.Find(".specs-heading").First())
		if name == "" {
			return
		}
		group := map[string]string{}
		section.Find("table tr").Each(func(_ int, row *goquery.Selection) {
			label := ownText(row.Find("td:first-child").First())
			cell := row.Find("td:last-child").First()
			value := normalizedText(cell)
			if value == "" {
				if cell.Find(".fa-check").Length() > 0 {
					value = "Yes"
				} else if cell.Find(".fa-times").Length() > 0 {
					value = "No"
				}
			}
			if key := cleanLabel(label); key != "" && value != "" {
				group[key] = value
			}
		})
		if len(group) > 0 {
			out[strings.ReplaceAll(strings.ToLower(name), " ", "_")] = group
		}
	})
	return out
}

// extractVehicleImages collects image URLs from three sources in order
// (gallery slides, thumbnail strip, any lazy-loaded image as last resort),
// deduplicated across methods, with protocol-relative and root-relative URLs
// made absolute.
func extractVehicleImages(doc *goquery.Document) []string {
	var images []string
	seen := map[string]struct{}{}
	add := func(u string) {
		if u == "" || strings.HasPrefix(u, "data:image") {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		images = append(images, u)
	}

	doc.Find(".lightSlider li img").Each(func(_ int, img *goquery.Selection) {
		add(First(
			func() string { return attr(img, "data-original") },
			func() string { return attr(img, "src") },
		))
	})
	doc.Find(".lSGallery img.slider-thumb").Each(func(_ int, img *goquery.Selection) {
		add(First(
			func() string { return attr(img, "src") },
			func() string { return attr(img, "data-original") },
		))
	})
	if len(images) == 0 {
		doc.Find("img[data-original]").Each(func(_ int, img *goquery.Selection) {
			add(attr(img, "data-original"))
		})
	}

	clean := make([]string, 0, len(images))
	for _, img := range images {
		switch {
		case strings.HasPrefix(img, "//"):
			img = "https:" + img
		case strings.HasPrefix(img, "/"):
			img = pakwheelsBase + img
		}
		clean = append(clean, img)
	}
	return clean
}

// extractSellerComments joins the free-text seller description, skipping text
// inside form labels and the site's advertising boilerplate line.
func extractSellerComments(doc *goquery.Document) string {
	var lines []string
	doc.Find("div.description-details").Each(func(_ int, div *goquery.Selection) {
		for _, node := range div.Nodes {
			collectTextLines(node, &lines)
		}
	})
	return strings.Join(lines, "\n")
}

func collectTextLines(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode && n.Data == "label" {
		return
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" && !strings.HasPrefix(t, "Mention PakWheels.com") {
			*lines = append(*lines, t)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextLines(c, lines)
	}
}

// parsePrice turns a visible price string into an integer amount. A "lac"
// suffix multiplies by 100,000; otherwise all non-digit characters are
// stripped. Unparsable prices yield nil so the field is omitted, never zero.
func parsePrice(priceText string) any {
	priceText = strings.TrimSpace(priceText)
	if priceText == "" {
		return nil
	}

	if strings.Contains(strings.ToLower(priceText), "lac") {
		if m := reFirstNumber.FindString(priceText); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return int(f * 100000)
			}
		}
	}

	digits := reNonDigit.ReplaceAllString(priceText, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return n
}

// parseJSONLD decodes the first JSON-LD script block under sel, or nil.
func parseJSONLD(sel *goquery.Selection) map[string]any {
	raw := sel.Find(`script[type="application/ld+json"]`).First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return data
}

// ldString walks a path of nested objects and coerces the leaf to a string.
func ldString(m map[string]any, path ...string) string {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ldStrings coerces a JSON-LD value that may be a string or a list of strings.
func ldStrings(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// stripUnits removes each cut substring and trims the result.
func stripUnits(s string, cuts ...string) string {
	for _, c := range cuts {
		s = strings.ReplaceAll(s, c, "")
	}
	return strings.TrimSpace(s)
}
