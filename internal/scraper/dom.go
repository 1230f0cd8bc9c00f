package scraper

import "time"

// Root is a read-only view of one node in the rendered page. It goes stale as soon
// as the page mutates, so callers read everything they need before scrolling.
type Root interface {
	// Text returns the inner text of the first descendant matching selector.
	Text(selector string) (string, error)
	// Attr returns attribute name of the first descendant matching selector.
	Attr(selector, name string) (string, error)
	// Texts returns the inner text of every descendant matching selector.
	Texts(selector string) ([]string, error)
}

// Page is one browsing tab.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	WaitLoaded(timeout time.Duration) error
	Roots(selector string) ([]Root, error)
	// Document is a Root spanning the whole page.
	Document() Root
	Click(selector string, timeout time.Duration) error
	// ClickOpen clicks selector and returns the page that the click opened in the
	// same browser context.
	ClickOpen(selector string, timeout time.Duration) (Page, error)
	Scroll(dy float64) error
	Title() string
	URL() string
	// Capture stores a debug screenshot, best effort.
	Capture(name string)
	Close() error
}

// Session opens pages sharing one browser context (cookies, identity, viewport).
type Session interface {
	NewPage() (Page, error)
}
