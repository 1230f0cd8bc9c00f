package browser

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/utils"
)

// readTimeout bounds reads on nodes already known to exist
const readTimeout = 2 * time.Second

var errNoMatch = errors.New("browser: no element matches")

func ms(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// Session adapts a playwright browser context to scraper.Session
type Session struct {
	bctx  playwright.BrowserContext
	shots *utils.ScreenShotDebugger
	// Jiggle moves the mouse before each scroll.
	Jiggle bool
}

func NewSession(bctx playwright.BrowserContext, shots *utils.ScreenShotDebugger) *Session {
	return &Session{bctx: bctx, shots: shots, Jiggle: true}
}

func (s *Session) NewPage() (scraper.Page, error) {
	p, err := s.bctx.NewPage()
	if err != nil {
		return nil, errors.Wrap(err, "could not create page")
	}
	return &Page{page: p, session: s}, nil
}

// Close closes the browser context and every page in it
func (s *Session) Close() error {
	return s.bctx.Close()
}

type Page struct {
	page    playwright.Page
	session *Session
}

func (p *Page) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(timeout),
	})
	return err
}

func (p *Page) WaitFor(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: ms(timeout),
	})
}

func (p *Page) WaitLoaded(timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: ms(timeout),
	})
}

func (p *Page) Roots(selector string) ([]scraper.Root, error) {
	items, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	roots := make([]scraper.Root, len(items))
	for i, item := range items {
		roots[i] = Root{loc: item}
	}
	return roots, nil
}

func (p *Page) Document() scraper.Root {
	return Root{loc: p.page.Locator(":root")}
}

func (p *Page) Click(selector string, timeout time.Duration) error {
	btn := p.page.Locator(selector).First()
	if n, err := btn.Count(); err != nil || n == 0 {
		return errNoMatch
	}
	return btn.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

func (p *Page) ClickOpen(selector string, timeout time.Duration) (scraper.Page, error) {
	btn := p.page.Locator(selector).First()
	if n, err := btn.Count(); err != nil || n == 0 {
		return nil, errNoMatch
	}
	popup, err := p.page.Context().ExpectPage(func() error {
		return btn.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
	}, playwright.BrowserContextExpectPageOptions{Timeout: ms(timeout)})
	if err != nil {
		return nil, errors.Wrapf(err, "click %q opened no page", selector)
	}
	return &Page{page: popup, session: p.session}, nil
}

func (p *Page) Scroll(dy float64) error {
	if p.session.Jiggle {
		if err := MouseJiggle(p.page); err != nil {
			log.Debug().Err(err).Msg("Mouse jiggle failed")
		}
	}
	return HumanScroll(p.page, dy)
}

func (p *Page) Title() string {
	title, err := p.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (p *Page) URL() string { return p.page.URL() }

func (p *Page) Capture(name string) {
	if p.session.shots == nil {
		return
	}
	_ = p.session.shots.CaptureAndLog(p.page, name, "Capturing "+name)
}

func (p *Page) Close() error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}

// Root is a locator scoped to one record
type Root struct {
	loc playwright.Locator
}

// first checks presence before reading so a missing node fails fast instead of
// waiting out the default action timeout
func (r Root) first(selector string) (playwright.Locator, error) {
	el := r.loc.Locator(selector).First()
	n, err := el.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.Wrap(errNoMatch, selector)
	}
	return el, nil
}

func (r Root) Text(selector string) (string, error) {
	el, err := r.first(selector)
	if err != nil {
		return "", err
	}
	return el.InnerText(playwright.LocatorInnerTextOptions{Timeout: ms(readTimeout)})
}

func (r Root) Attr(selector, name string) (string, error) {
	el, err := r.first(selector)
	if err != nil {
		return "", err
	}
	return el.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: ms(readTimeout)})
}

func (r Root) Texts(selector string) ([]string, error) {
	return r.loc.Locator(selector).AllInnerTexts()
}
