package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bookwatch/internal/parse"
)

const catalogHTML = `<html><body>
<section>
  <ol class="row">
    <li>
      <article class="product_pod">
        <h3><a href="a-light-in-the-attic_1000/index.html" title="A Light in the Attic">A Light in the ...</a></h3>
      </article>
    </li>
    <li>
      <article class="product_pod">
        <h3><a href="tipping-the-velvet_999/index.html" title="Tipping the Velvet">Tipping the Velvet</a></h3>
      </article>
    </li>
    <li>
      <article class="product_pod">
        <h3><a href="soumission_998/index.html" title="Soumission">Soumission</a></h3>
      </article>
    </li>
  </ol>
  <ul class="pager">
    <li class="next"><a href="page-2.html">next</a></li>
  </ul>
</section>
</body></html>`

const lastCatalogHTML = `<html><body>
<ol class="row">
  <li>
    <article class="product_pod">
      <h3><a href="the-last-book_1/index.html">The Last Book</a></h3>
    </article>
  </li>
</ol>
<ul class="pager">
  <li class="previous"><a href="page-49.html">previous</a></li>
</ul>
</body></html>`

func TestParseCatalogPage(t *testing.T) {
	t.Parallel()

	page, err := parse.ParseCatalogPage([]byte(catalogHTML), "https://books.toscrape.com/catalogue/page-1.html")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://books.toscrape.com/catalogue/a-light-in-the-attic_1000/index.html",
		"https://books.toscrape.com/catalogue/tipping-the-velvet_999/index.html",
		"https://books.toscrape.com/catalogue/soumission_998/index.html",
	}, page.ItemURLs)
	assert.Equal(t, "https://books.toscrape.com/catalogue/page-2.html", page.NextPageURL)
}

func TestParseCatalogPageLastPage(t *testing.T) {
	t.Parallel()

	page, err := parse.ParseCatalogPage([]byte(lastCatalogHTML), "https://books.toscrape.com/catalogue/page-50.html")

	require.NoError(t, err)
	require.Len(t, page.ItemURLs, 1)
	assert.Empty(t, page.NextPageURL)
}

func TestParseCatalogPageEmpty(t *testing.T) {
	t.Parallel()

	page, err := parse.ParseCatalogPage([]byte("<html><body></body></html>"), "https://books.toscrape.com/")

	require.NoError(t, err)
	assert.Empty(t, page.ItemURLs)
	assert.Empty(t, page.NextPageURL)
}

func TestParseCatalogPageAbsoluteLinks(t *testing.T) {
	t.Parallel()

	html := `<article class="product_pod"><h3>
		<a href="https://books.toscrape.com/catalogue/some-book_42/index.html">Some Book</a>
	</h3></article>`

	page, err := parse.ParseCatalogPage([]byte(html), "https://books.toscrape.com/catalogue/page-3.html")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://books.toscrape.com/catalogue/some-book_42/index.html"}, page.ItemURLs)
}
