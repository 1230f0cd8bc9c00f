package api

import (
	"context"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/browser"
	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/utils"
)

// BrowserRunner gives every crawl its own browser context on a shared Chromium
type BrowserRunner struct {
	manager *browser.PlaywrightManager
	cookies []playwright.OptionalCookie
	scraper scraper.Scraper
	shots   *utils.ScreenShotDebugger
}

func NewBrowserRunner(manager *browser.PlaywrightManager, cookies []playwright.OptionalCookie, s scraper.Scraper, shots *utils.ScreenShotDebugger) *BrowserRunner {
	return &BrowserRunner{manager: manager, cookies: cookies, scraper: s, shots: shots}
}

func (r *BrowserRunner) Run(ctx context.Context, spec scraper.SearchSpec) (*scraper.Result, error) {
	bctx, err := r.manager.NewContext(r.cookies)
	if err != nil {
		return nil, err
	}
	session := browser.NewSession(bctx, r.shots)
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug().Err(err).Msg("Error closing browser context")
		}
	}()
	return r.scraper.Scrape(ctx, session, spec)
}

// SessionRunner crawls a fixed session, such as a replayed snapshot
type SessionRunner struct {
	Session scraper.Session
	Scraper scraper.Scraper
}

func (r SessionRunner) Run(ctx context.Context, spec scraper.SearchSpec) (*scraper.Result, error) {
	return r.Scraper.Scrape(ctx, r.Session, spec)
}
