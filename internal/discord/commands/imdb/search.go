package imdb

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gocolly/colly"
)

type SearchResult struct {
	ID    string
	Title string
}

type Title struct {
	ID          string
	Name        string
	Description string
	Image       string
}

func (t Title) URL(source string) string {
	return source + "/title/" + t.ID + "/"
}

const (
	DefaultSource = "https://www.imdb.com"
	userAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/118.0"
)

var ErrNotFound = errors.New("no such title")

// Scraper reads search results and title pages. Every lookup runs on a
// clone of the base collector so callbacks never pile up.
type Scraper struct {
	source string
	base   *colly.Collector
}

// NewScraper scrapes source, caching pages under cacheDir when it is set.
func NewScraper(source string, cacheDir string) (*Scraper, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}

	opts := []func(*colly.Collector){
		colly.AllowURLRevisit(),
		colly.AllowedDomains(u.Hostname(), u.Host),
		colly.UserAgent(userAgent),
	}
	if cacheDir != "" {
		opts = append(opts, colly.CacheDir(cacheDir))
	}

	return &Scraper{
		source: strings.TrimSuffix(source, "/"),
		base:   colly.NewCollector(opts...),
	}, nil
}

func (s *Scraper) Source() string {
	return s.source
}

// titleID pulls tt0000000 out of /title/tt0000000/?ref_=fn_tt_tt_1.
func titleID(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	for i, p := range parts {
		if p == "title" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func (s *Scraper) Search(query string) ([]SearchResult, error) {
	if len(query) < 3 {
		return []SearchResult{}, nil
	}

	collector := s.base.Clone()

	res := []SearchResult{}
	var resErr error
	collector.OnHTML("li.find-title-result", func(h *colly.HTMLElement) {
		id := titleID(h.ChildAttr("a", "href"))
		if id == "" {
			return
		}
		res = append(res, SearchResult{ID: id, Title: h.ChildText("a")})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		resErr = err
	})

	err := collector.Visit(s.source + "/find/?s=tt&q=" + url.QueryEscape(query) + "&ref_=nv_sr_sm")
	if err != nil {
		return nil, err
	}
	collector.Wait()

	return res, resErr
}

func (s *Scraper) Title(id string) (Title, error) {
	collector := s.base.Clone()

	res := Title{}
	var resErr error
	collector.OnHTML("head", func(h *colly.HTMLElement) {
		res.ID = id
		res.Description = h.ChildAttr("meta[name=description]", "content")
		res.Name = h.ChildAttr("meta[property='og:title']", "content")
		res.Image = h.ChildAttr("meta[property='og:image']", "content")
	})

	collector.OnError(func(_ *colly.Response, err error) {
		resErr = err
	})

	err := collector.Visit(s.source + "/title/" + url.PathEscape(id) + "/")
	if err != nil {
		return res, err
	}
	collector.Wait()

	if resErr == nil && res.Name == "" {
		resErr = ErrNotFound
	}

	return res, resErr
}
