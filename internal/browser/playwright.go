package browser

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// LaunchConfig controls how Chromium is started and how new contexts look
type LaunchConfig struct {
	Headless          bool
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

func (c LaunchConfig) withDefaults() LaunchConfig {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1366
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 60 * time.Second
	}
	return c
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     LaunchConfig
}

// NewPlaywright starts the driver and one Chromium instance shared by every context
func NewPlaywright(cfg LaunchConfig) (*PlaywrightManager, error) {
	cfg = cfg.withDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.Wrap(err, "could not start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errors.Wrap(err, "could not launch chromium")
	}

	log.Debug().Bool("headless", cfg.Headless).Msg("🌐 Chromium launched")
	return &PlaywrightManager{pw: pw, browser: browser, cfg: cfg}, nil
}

// NewContext opens an isolated browser context with the configured fingerprint and cookies
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(pm.cfg.UserAgent),
		Viewport: &playwright.Size{
			Width:  pm.cfg.ViewportWidth,
			Height: pm.cfg.ViewportHeight,
		},
		Locale: playwright.String("en-US"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create browser context")
	}
	bctx.SetDefaultNavigationTimeout(float64(pm.cfg.NavigationTimeout.Milliseconds()))

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, errors.Wrap(err, "could not add cookies")
		}
	}
	return bctx, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "close browser"))
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "stop playwright"))
		}
	}
	return errs
}
