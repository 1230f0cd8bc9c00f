// Package snapshot replays saved HTML as a browser session, so the crawler can run
// offline against captured feeds and detail pages.
package snapshot

import (
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"go-jobfeed-crawler/internal/scraper"
)

var ErrNotFound = errors.New("snapshot: no page for url")

// Site is a recorded website. The feed reveals one more stage per scroll; once the
// last stage is reached further scrolling changes nothing.
type Site struct {
	// FeedURL prefix-matches the search address.
	FeedURL string
	Feed    []string
	// Pages maps exact URLs to detail page HTML.
	Pages map[string]string
	// Titles optionally overrides the <title> of a URL.
	Titles map[string]string

	mu     sync.Mutex
	open   int
	opened int
	visits map[string]int
}

// NewSite builds a Site with the given feed stages
func NewSite(feedURL string, feed ...string) *Site {
	return &Site{
		FeedURL: feedURL,
		Feed:    feed,
		Pages:   make(map[string]string),
		Titles:  make(map[string]string),
	}
}

// OpenPages is the number of pages not yet closed
func (s *Site) OpenPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// PagesOpened is the number of pages ever opened, popups included
func (s *Site) PagesOpened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Visits is how many times url was navigated to
func (s *Site) Visits(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[url]
}

func (s *Site) NewPage() (scraper.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open++
	s.opened++
	return &Page{site: s, url: "about:blank"}, nil
}

func (s *Site) visit(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visits == nil {
		s.visits = make(map[string]int)
	}
	s.visits[url]++
}

func (s *Site) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open--
}

// Page is one replayed tab
type Page struct {
	site   *Site
	url    string
	feed   bool
	stage  int
	html   string
	closed bool
	// Captures lists names passed to Capture.
	Captures []string
}

func (p *Page) Goto(url string, _ time.Duration) error {
	p.site.visit(url)
	if p.site.FeedURL != "" && strings.HasPrefix(url, p.site.FeedURL) {
		p.url, p.feed, p.stage = url, true, 0
		return nil
	}
	html, ok := p.site.Pages[url]
	if !ok {
		return errors.Wrap(ErrNotFound, url)
	}
	p.url, p.feed, p.html = url, false, html
	return nil
}

func (p *Page) current() string {
	if !p.feed {
		return p.html
	}
	if len(p.site.Feed) == 0 {
		return ""
	}
	stage := p.stage
	if stage >= len(p.site.Feed) {
		stage = len(p.site.Feed) - 1
	}
	return p.site.Feed[stage]
}

func (p *Page) doc() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.current()))
}

func (p *Page) WaitFor(selector string, _ time.Duration) error {
	doc, err := p.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return errors.Newf("snapshot: %q not present", selector)
	}
	return nil
}

func (p *Page) WaitLoaded(time.Duration) error { return nil }

func (p *Page) Roots(selector string) ([]scraper.Root, error) {
	doc, err := p.doc()
	if err != nil {
		return nil, err
	}
	var roots []scraper.Root
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		roots = append(roots, Root{sel: s})
	})
	return roots, nil
}

func (p *Page) Document() scraper.Root {
	doc, err := p.doc()
	if err != nil {
		return Root{}
	}
	return Root{sel: doc.Selection}
}

func (p *Page) Click(selector string, _ time.Duration) error {
	doc, err := p.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return errors.Newf("snapshot: nothing to click at %q", selector)
	}
	return nil
}

// ClickOpen opens the URL in the clicked element's data-href (or href) as a new page
func (p *Page) ClickOpen(selector string, _ time.Duration) (scraper.Page, error) {
	doc, err := p.doc()
	if err != nil {
		return nil, err
	}
	el := doc.Find(selector).First()
	if el.Length() == 0 {
		return nil, errors.Newf("snapshot: nothing to click at %q", selector)
	}
	target, ok := el.Attr("data-href")
	if !ok {
		target, ok = el.Attr("href")
	}
	if !ok || target == "" {
		return nil, errors.Newf("snapshot: click at %q opened no page", selector)
	}
	popup, _ := p.site.NewPage()
	pp := popup.(*Page)
	pp.url = target
	pp.html = p.site.Pages[target]
	return pp, nil
}

func (p *Page) Scroll(float64) error {
	if p.feed {
		p.stage++
	}
	return nil
}

func (p *Page) Title() string {
	if t, ok := p.site.Titles[p.url]; ok {
		return t
	}
	doc, err := p.doc()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func (p *Page) URL() string { return p.url }

func (p *Page) Capture(name string) {
	p.Captures = append(p.Captures, name)
}

func (p *Page) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.site.release()
	return nil
}

// Root wraps a goquery selection
type Root struct {
	sel *goquery.Selection
}

func (r Root) find(selector string) (*goquery.Selection, error) {
	if r.sel == nil {
		return nil, errors.New("snapshot: empty root")
	}
	found := r.sel.Find(selector)
	if found.Length() == 0 {
		return nil, errors.Newf("snapshot: %q not found", selector)
	}
	return found, nil
}

func (r Root) Text(selector string) (string, error) {
	found, err := r.find(selector)
	if err != nil {
		return "", err
	}
	return found.First().Text(), nil
}

func (r Root) Attr(selector, name string) (string, error) {
	found, err := r.find(selector)
	if err != nil {
		return "", err
	}
	v, ok := found.First().Attr(name)
	if !ok {
		return "", errors.Newf("snapshot: %q has no %s", selector, name)
	}
	return v, nil
}

func (r Root) Texts(selector string) ([]string, error) {
	found, err := r.find(selector)
	if err != nil {
		return nil, err
	}
	return found.Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	}), nil
}
