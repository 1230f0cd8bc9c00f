package scraper

import (
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Affordance is one "apply on company site" control on a detail page.
// Direct links are read from their attribute; Click controls open a new tab whose
// address is the destination.
type Affordance struct {
	Rule
	Click bool
}

// Detail describes a site's listing detail page
type Detail struct {
	// ReadySelector signals the initial render of the detail page.
	ReadySelector string
	Affordances   []Affordance
	// Unwrap turns a same-site redirect wrapper into its destination, if any.
	Unwrap func(string) string
}

// Enricher visits a listing's detail page in an auxiliary tab to find its external apply link
type Enricher struct {
	detail       Detail
	timeout      time.Duration
	popupTimeout time.Duration
}

func NewEnricher(detail Detail, timeout, popupTimeout time.Duration) *Enricher {
	return &Enricher{
		detail:       detail,
		timeout:      timeout,
		popupTimeout: popupTimeout,
	}
}

// ResolveExternal returns the external apply link for listing link, or false when it
// cannot be resolved. Every page it opens is closed before it returns.
func (e *Enricher) ResolveExternal(session Session, link string) (string, bool) {
	if len(e.detail.Affordances) == 0 {
		return "", false
	}
	page, err := session.NewPage()
	if err != nil {
		log.Warn().Err(err).Msg("      ⚠️ Failed to create detail page")
		return "", false
	}
	defer closePage(page)

	if err := page.Goto(link, e.timeout); err != nil {
		log.Debug().Err(err).Str("link", link).Msg("      ⚠️ Detail navigation failed")
		return "", false
	}
	if e.detail.ReadySelector != "" {
		if err := page.WaitFor(e.detail.ReadySelector, e.timeout); err != nil {
			log.Debug().Str("link", link).Msg("      ⚠️ Detail page never rendered")
			return "", false
		}
	}

	doc := page.Document()
	for _, a := range e.detail.Affordances {
		var dest string
		if a.Click {
			dest = e.follow(page, a.Selector)
		} else {
			dest = Extract(doc, Chain{a.Rule})
		}
		if dest = e.normalize(link, dest); dest != "" {
			return dest, true
		}
	}
	log.Debug().Str("link", link).Msg("      ❌ No external apply affordance")
	return "", false
}

// follow clicks selector and reads the address of the tab it opens
func (e *Enricher) follow(page Page, selector string) string {
	popup, err := page.ClickOpen(selector, e.popupTimeout)
	if err != nil {
		return ""
	}
	defer closePage(popup)

	// about:blank first, then the redirect lands; a lapsed wait still leaves a usable URL
	_ = popup.WaitLoaded(e.popupTimeout)
	return popup.URL()
}

func (e *Enricher) normalize(listing, dest string) string {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return ""
	}
	base, err := url.Parse(listing)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(dest)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if e.detail.Unwrap != nil {
		if unwrapped := e.detail.Unwrap(abs.String()); unwrapped != "" {
			if u, err := url.Parse(unwrapped); err == nil {
				abs = u
			}
		}
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if sameSite(abs.Hostname(), base.Hostname()) {
		return ""
	}
	return abs.String()
}

func sameSite(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}

func closePage(p Page) {
	if err := p.Close(); err != nil {
		log.Debug().Err(err).Msg("Error closing page")
	}
}
