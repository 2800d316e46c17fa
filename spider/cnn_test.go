package spider

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cnnArticleHTML = `
<html><head>
<meta name="description" content="A summit concluded with a joint statement.">
</head><body>
<h1 class="headline__text">Leaders agree on climate pact</h1>
<div class="image__container">
  <picture>
    <source srcset="https://media.cnn.com/api/v1/images/one.jpg?c=16x9&q=h_720">
    <source srcset="https://media.cnn.com/api/v1/images/one.jpg?c=16x9&q=h_1080">
  </picture>
</div>
<div class="media__video">
  <source src="https://media.cnn.com/video/one.mp4">
</div>
<p class="paragraph">The agreement was announced on Friday.</p>
<p class="paragraph">Delegates said talks ran late.</p>
</body></html>`

func TestCnnParseArticle(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cnnArticleHTML))
	require.NoError(t, err)

	s := NewCnnSpider()
	rec := s.parseArticle(doc, "https://www.cnn.com/2025/08/29/world/climate-pact/index.html")

	assert.Equal(t, "Leaders agree on climate pact", rec["title"])
	assert.Equal(t, "A summit concluded with a joint statement.", rec["description"])

	// Both srcsets collapse to the same URL once the size query is stripped.
	assert.Equal(t, []string{"https://media.cnn.com/api/v1/images/one.jpg"}, rec["images"])
	assert.Equal(t, []string{"https://media.cnn.com/video/one.mp4"}, rec["videos"])

	assert.Equal(t, "The agreement was announced on Friday. Delegates said talks ran late.", rec["text"])
}

func TestCnnParseArticleDescriptionFallback(t *testing.T) {
	html := `<html><body>
<h1 class="headline__text">Quick update</h1>
<p class="paragraph">First paragraph stands in for the missing summary.</p>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	s := NewCnnSpider()
	rec := s.parseArticle(doc, "https://www.cnn.com/2025/08/29/us/update/index.html")

	assert.Equal(t, "First paragraph stands in for the missing summary.", rec["description"])
}

func TestCnnClassify(t *testing.T) {
	s := NewCnnSpider()
	assert.Equal(t, KindDetail, s.Classify("https://www.cnn.com/2025/08/29/world/story/index.html"))
	assert.Equal(t, KindListing, s.Classify("https://edition.cnn.com/world"))
}
