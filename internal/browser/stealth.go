package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration between min and max milliseconds
func RandomDelay(min, max int) {
	if max <= min {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	duration := rand.Intn(max-min+1) + min
	time.Sleep(time.Duration(duration) * time.Millisecond)
}

// HumanScroll wheels down by dy in two uneven steps, the way a hand on a trackpad does
func HumanScroll(page playwright.Page, dy float64) error {
	first := dy * (0.55 + rand.Float64()*0.25)
	if err := page.Mouse().Wheel(0, first); err != nil {
		return err
	}
	RandomDelay(80, 220)
	return page.Mouse().Wheel(0, dy-first)
}

// MouseJiggle simulates random mouse movements to prevent idle detection
func MouseJiggle(page playwright.Page) error {
	viewportSize := page.ViewportSize()
	if viewportSize == nil || viewportSize.Width <= 0 || viewportSize.Height <= 0 {
		return nil
	}
	for i := 0; i < 2; i++ {
		x := rand.Intn(viewportSize.Width)
		y := rand.Intn(viewportSize.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		RandomDelay(40, 120)
	}
	return nil
}
