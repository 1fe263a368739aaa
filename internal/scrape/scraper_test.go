package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseArchive(t *testing.T) {
	doc := docFrom(t, `
<html><body>
  <a class="not_current_thumb" href="https://pbfcomics.com/comics/the-throwback/"><img></a>
  <a class="not_current_thumb" href="https://pbfcomics.com/comics/now-showing/"><img></a>
  <a class="other_link" href="https://pbfcomics.com/about/">about</a>
</body></html>`)

	links := ParseArchive(doc)
	assert.Equal(t, []string{
		"https://pbfcomics.com/comics/the-throwback/",
		"https://pbfcomics.com/comics/now-showing/",
	}, links)
}

func TestParseComicPage(t *testing.T) {
	doc := docFrom(t, `
<html><body>
  <h1 class="pbf-comic-title">The Throwback</h1>
  <div id="comic">
    <img src="https://pbfcomics.com/wp-content/uploads/2018/01/PBF-Throwback.png"
         alt="The Throwback" title="The Throwback">
  </div>
</body></html>`)

	comic, err := ParseComicPage(doc, "https://pbfcomics.com/comics/the-throwback/")
	require.NoError(t, err)
	assert.Equal(t, "PBF-Throwback.png", comic.ID)
	assert.Equal(t, "The Throwback", comic.Title)
	assert.Equal(t, "The Throwback", comic.AltText)
	assert.Equal(t, "https://pbfcomics.com/wp-content/uploads/2018/01/PBF-Throwback.png", comic.ImageURL)
	assert.Equal(t, "https://pbfcomics.com/comics/the-throwback/", comic.PageURL)
}

func TestParseComicPageLazyLoaded(t *testing.T) {
	doc := docFrom(t, `
<html><body>
  <div id="comic">
    <img src="` + placeholderImage + `"
         data-src="https://pbfcomics.com/wp-content/uploads/2018/01/PBF-Now_Showing.gif"
         alt="Now Showing">
  </div>
</body></html>`)

	comic, err := ParseComicPage(doc, "https://pbfcomics.com/comics/now-showing/")
	require.NoError(t, err)
	assert.Equal(t, "PBF-Now_Showing.gif", comic.ID)
	assert.Equal(t, "https://pbfcomics.com/wp-content/uploads/2018/01/PBF-Now_Showing.gif", comic.ImageURL)
}

func TestParseComicPageTitleFallsBackToAttr(t *testing.T) {
	doc := docFrom(t, `
<html><body>
  <div id="comic">
    <img src="https://pbfcomics.com/img/PBF-X.png" title="Attr Title">
  </div>
</body></html>`)

	comic, err := ParseComicPage(doc, "https://pbfcomics.com/comics/x/")
	require.NoError(t, err)
	assert.Equal(t, "Attr Title", comic.Title)
}

func TestParseComicPageStructureChanged(t *testing.T) {
	doc := docFrom(t, `<html><body><div id="content">nothing here</div></body></html>`)

	_, err := ParseComicPage(doc, "https://pbfcomics.com/comics/x/")
	require.Error(t, err)

	var structErr *StructureChangedError
	assert.ErrorAs(t, err, &structErr)
}
