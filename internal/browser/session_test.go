package browser

import (
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfeed-crawler/internal/scraper"
)

const listingHTML = `<html><head><title>Jobs</title></head><body>
<ul class="results">
  <li><h3>Data Scientist</h3><a class="link" href="https://jobs.example.com/view/1?trk=x">view</a><span class="badge">Easy Apply</span></li>
  <li><h3>Analyst</h3></li>
</ul>
<a id="apply" href="https://careers.example.com/apply/1" target="_blank">Apply</a>
</body></html>`

// newTestSession launches headless chromium with every request answered from memory.
// Skips when no browser is installed.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	pm, err := NewPlaywright(LaunchConfig{Headless: true, NavigationTimeout: 10 * time.Second})
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	t.Cleanup(func() { _ = pm.Close() })

	bctx, err := pm.NewContext(nil)
	require.NoError(t, err)
	require.NoError(t, bctx.Route("**/*", func(route playwright.Route) {
		body := listingHTML
		if route.Request().URL() != "https://jobs.example.com/search" {
			body = "<html><head><title>Careers</title></head><body>apply here</body></html>"
		}
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        body,
		})
	}))

	s := NewSession(bctx, nil)
	s.Jiggle = false
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_ReadsRoots(t *testing.T) {
	s := newTestSession(t)
	page, err := s.NewPage()
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto("https://jobs.example.com/search", 5*time.Second))
	require.NoError(t, page.WaitFor("ul.results li", 5*time.Second))
	assert.Equal(t, "Jobs", page.Title())

	roots, err := page.Roots("ul.results li")
	require.NoError(t, err)
	require.Len(t, roots, 2)

	role := scraper.Extract(roots[0], scraper.Text("h3.missing", "h3"))
	assert.Equal(t, "Data Scientist", role)
	href := scraper.Extract(roots[0], scraper.Href("a.link"))
	assert.Equal(t, "https://jobs.example.com/view/1?trk=x", href)
	assert.Equal(t, "", scraper.Extract(roots[1], scraper.Href("a.link")))

	badges, err := roots[0].Texts(".badge")
	require.NoError(t, err)
	assert.Equal(t, []string{"Easy Apply"}, badges)

	assert.NoError(t, page.Scroll(500))
	assert.Error(t, page.Click("button.more", time.Second))
}

func TestSession_ClickOpen(t *testing.T) {
	s := newTestSession(t)
	page, err := s.NewPage()
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto("https://jobs.example.com/search", 5*time.Second))

	popup, err := page.ClickOpen("#apply", 5*time.Second)
	require.NoError(t, err)
	_ = popup.WaitLoaded(5 * time.Second)
	assert.Equal(t, "https://careers.example.com/apply/1", popup.URL())
	assert.NoError(t, popup.Close())
	assert.NoError(t, popup.Close(), "closing twice is harmless")

	_, err = page.ClickOpen("#missing", time.Second)
	assert.Error(t, err)
}
