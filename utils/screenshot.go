package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

// ScreenShotDebugger handles debug screenshots
type ScreenShotDebugger struct {
	outputDir string
}

// NewScreenShotDebugger stores screenshots under dir, logs/screenshots when empty
func NewScreenShotDebugger(dir string) *ScreenShotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("⚠️ Could not create screenshot dir")
	}
	return &ScreenShotDebugger{outputDir: dir}
}

// Path is where a capture called name taken at ts is written
func (s *ScreenShotDebugger) Path(name string, ts time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '?', '*':
			return '_'
		}
		return r
	}, name)
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", safe, ts.Format("2006-01-02_15-04-05")))
}

func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	path := s.Path(name, time.Now())
	log.Info().Msgf("📸 %s", message)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to capture screenshot")
		return err
	}

	log.Info().Msgf("   Screenshot saved: %s", path)
	return nil
}
