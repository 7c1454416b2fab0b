package imdb

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body><ul>
<li class="find-title-result"><a href="/title/tt0078748/?ref_=fn_tt_tt_1">Alien</a></li>
<li class="find-title-result"><a href="/title/tt0090605/?ref_=fn_tt_tt_2">Aliens</a></li>
<li class="find-title-result"><a href="/name/nm0000244/">Sigourney Weaver</a></li>
</ul></body></html>`

const titlePage = `<html><head>
<meta name="description" content="The crew of a commercial spacecraft encounters a deadly lifeform.">
<meta property="og:title" content="Alien (1979)">
<meta property="og:image" content="https://example.com/alien.jpg">
</head><body></body></html>`

func newTestScraper(t *testing.T) *Scraper {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/find/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "alien" {
			w.Write([]byte("<html><body><ul></ul></body></html>"))
			return
		}
		w.Write([]byte(searchPage))
	})
	mux.HandleFunc("/title/tt0078748/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(titlePage))
	})
	mux.HandleFunc("/title/tt0000000/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><head></head></html>"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := NewScraper(srv.URL, "")
	require.NoError(t, err)
	return s
}

func TestSearch(t *testing.T) {
	s := newTestScraper(t)

	res, err := s.Search("alien")
	require.NoError(t, err)
	assert.Equal(t, []SearchResult{
		{ID: "tt0078748", Title: "Alien"},
		{ID: "tt0090605", Title: "Aliens"},
	}, res)

	// a second search must not replay the first one's callbacks
	res, err = s.Search("nothing here")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchShortQuery(t *testing.T) {
	s := newTestScraper(t)

	res, err := s.Search("al")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestTitle(t *testing.T) {
	s := newTestScraper(t)

	title, err := s.Title("tt0078748")
	require.NoError(t, err)
	assert.Equal(t, Title{
		ID:          "tt0078748",
		Name:        "Alien (1979)",
		Description: "The crew of a commercial spacecraft encounters a deadly lifeform.",
		Image:       "https://example.com/alien.jpg",
	}, title)
	assert.Equal(t, s.Source()+"/title/tt0078748/", title.URL(s.Source()))

	_, err = s.Title("tt0000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Title("tt404")
	assert.Error(t, err)
}

func TestTitleID(t *testing.T) {
	assert.Equal(t, "tt0078748", titleID("/title/tt0078748/?ref_=fn_tt_tt_1"))
	assert.Equal(t, "tt0078748", titleID("https://www.imdb.com/title/tt0078748/"))
	assert.Equal(t, "", titleID("/name/nm0000244/"))
}
