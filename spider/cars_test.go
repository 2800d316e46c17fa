package spider

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarsSeed(t *testing.T) {
	s := NewCarsSpider()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "query parameters dropped",
			in:   "https://www.pakwheels.com/used-cars/search/-/?page=2",
			want: "https://www.pakwheels.com/used-cars/search/-/",
		},
		{
			name: "bare used-cars root gets search suffix",
			in:   "https://www.pakwheels.com/used-cars/",
			want: "https://www.pakwheels.com/used-cars/search/-/",
		},
		{
			name: "bare used-bikes root gets search suffix",
			in:   "https://www.pakwheels.com/used-bikes/",
			want: "https://www.pakwheels.com/used-bikes/search/-/",
		},
		{
			name: "detail page passes through",
			in:   "https://www.pakwheels.com/used-cars/toyota-corolla-2018/7654321/",
			want: "https://www.pakwheels.com/used-cars/toyota-corolla-2018/7654321/",
		},
		{
			name: "city listing passes through",
			in:   "https://www.pakwheels.com/used-cars/lahore/",
			want: "https://www.pakwheels.com/used-cars/lahore/",
		},
		{
			name: "search listing passes through",
			in:   "https://www.pakwheels.com/used-cars/search/-/mk_toyota/",
			want: "https://www.pakwheels.com/used-cars/search/-/mk_toyota/",
		},
		{
			name: "new-cars gets any-any search shape",
			in:   "https://www.pakwheels.com/new-cars/",
			want: "https://www.pakwheels.com/new-cars/search/make_any/model_any/price_any_any/",
		},
		{
			name: "new-bikes gets any-any search shape",
			in:   "https://www.pakwheels.com/new-bikes/",
			want: "https://www.pakwheels.com/search/make_any/model_any/price_any_any/",
		},
		{
			name: "already normalized new-cars is unchanged",
			in:   "https://www.pakwheels.com/new-cars/search/make_any/model_any/price_any_any/",
			want: "https://www.pakwheels.com/new-cars/search/make_any/model_any/price_any_any/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Seed(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCarsClassify(t *testing.T) {
	s := NewCarsSpider()

	assert.Equal(t, KindDetail, s.Classify("https://www.pakwheels.com/used-cars/honda-civic/1234567/"))
	assert.Equal(t, KindListing, s.Classify("https://www.pakwheels.com/used-cars/search/-/"))
	assert.Equal(t, KindListing, s.Classify("https://www.pakwheels.com/new-cars/search/make_any/model_any/price_any_any/"))
	assert.Equal(t, KindUnsupported, s.Classify("https://www.pakwheels.com/forums/"))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"PKR 24.5 lacs", 2450000},
		{"PKR 50 lacs", 5000000},
		{"PKR 1,850,000", 1850000},
		{"Call for price", nil},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePrice(tt.in), "parsePrice(%q)", tt.in)
	}
}

const usedCardHTML = `
<ul>
<li class="classified-listing featured">
  <a class="car-name" href="/used-cars/suzuki-alto-2019/8001234/"><h3>Suzuki Alto VXR 2019</h3></a>
  <div class="price-details">PKR 23.5 lacs</div>
  <ul class="search-vehicle-info"><li>Karachi</li></ul>
  <ul class="search-vehicle-info-2">
    <li>2019</li>
    <li>45,000 km</li>
    <li>Petrol</li>
    <li>660 cc</li>
    <li>Manual</li>
  </ul>
  <div class="dated">Updated 2 days ago</div>
</li>
</ul>`

func TestExtractBasicInfoPositionalFallback(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(usedCardHTML))
	require.NoError(t, err)

	s := NewCarsSpider()
	rec := s.extractBasicInfo(doc.Find("li.classified-listing").First())

	// No JSON-LD block on the card, so every field comes from the visible
	// spec list in its fixed position.
	assert.Equal(t, "2019", rec["year"])
	assert.Equal(t, "45000", rec["mileage"])
	assert.Equal(t, "Petrol", rec["fuel_type"])
	assert.Equal(t, "660", rec["engine_cc"])
	assert.Equal(t, "Manual", rec["transmission"])

	assert.Equal(t, "Suzuki Alto VXR 2019", rec["title"])
	assert.Equal(t, 2350000, rec["price"])
	assert.Equal(t, "Karachi", rec["city"])
	assert.Equal(t, true, rec["is_featured"])
	assert.Equal(t, "2 days ago", rec["updated_time"])
	assert.Equal(t, "https://www.pakwheels.com/used-cars/suzuki-alto-2019/8001234/", rec["listing_url"])
}

const usedCardLDHTML = `
<li class="classified-listing">
  <a class="car-name" href="/used-cars/honda-city-2020/8005678/"><h3>Honda City 2020</h3></a>
  <script type="application/ld+json">
  {
    "brand": {"name": "Honda"},
    "modelDate": 2020,
    "mileageFromOdometer": "30,000 km",
    "fuelType": "Petrol",
    "vehicleEngine": {"engineDisplacement": "1500cc"},
    "vehicleTransmission": "Automatic"
  }
  </script>
  <ul class="search-vehicle-info-2">
    <li>1999</li>
    <li>999,999 km</li>
    <li>Diesel</li>
    <li>9999 cc</li>
    <li>Manual</li>
  </ul>
</li>`

func TestExtractBasicInfoPrefersJSONLD(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(usedCardLDHTML))
	require.NoError(t, err)

	s := NewCarsSpider()
	rec := s.extractBasicInfo(doc.Find("li.classified-listing").First())

	assert.Equal(t, "Honda", rec["brand"])
	assert.Equal(t, "2020", rec["year"])
	assert.Equal(t, "30000", rec["mileage"])
	assert.Equal(t, "Petrol", rec["fuel_type"])
	assert.Equal(t, "1500", rec["engine_cc"])
	assert.Equal(t, "Automatic", rec["transmission"])
}

const usedDetailHTML = `
<html><body>
<ul id="scroll_car_detail">
  <li class="ad-data">Registered In</li><li>Lahore</li>
  <li class="ad-data">Color</li><li>White</li>
  <li class="ad-data">Assembly</li><li>Local</li>
</ul>
<div class="specs-wrapper">
  <div class="specs-heading">Engine and Performance</div>
  <table>
    <tr><td>Engine Type</td><td>Inline-4</td></tr>
    <tr><td>Turbo</td><td><i class="fa-times"></i></td></tr>
  </table>
</div>
<div id="carfeatures">
  <div class="specs-wrapper">
    <div class="specs-heading">Safety</div>
    <table><tr><td>ABS</td><td><i class="fa-check"></i></td></tr></table>
  </div>
</div>
<div class="lightSlider">
  <li><img data-original="//cache.pakwheels.com/photos/1.jpg"></li>
  <li><img src="/photos/2.jpg"></li>
</div>
<div class="description-details">
  <label>Seller Comments</label>
  First owner, all original.
  <p>Mention PakWheels.com when calling</p>
</div>
</body></html>`

func TestParseUsedDetail(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(usedDetailHTML))
	require.NoError(t, err)

	s := NewCarsSpider()
	rec := s.parseUsedDetail(doc, nil)

	assert.Equal(t, "Lahore", rec["registered_in"])
	assert.Equal(t, "White", rec["color"])
	assert.Equal(t, "Local", rec["assembly"])

	specs, ok := rec["detailed_specifications"].(map[string]map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Inline-4", specs["engine_and_performance"]["engine_type"])
	assert.Equal(t, "No", specs["engine_and_performance"]["turbo"])

	features, ok := rec["features"].(map[string]map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Yes", features["safety"]["abs"])

	images, ok := rec["images"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{
		"https://cache.pakwheels.com/photos/1.jpg",
		"https://www.pakwheels.com/photos/2.jpg",
	}, images)

	assert.Equal(t, "First owner, all original.", rec["seller_comments"])
}
