package scraper

import (
	"strings"
	"time"
)

// Profile is everything site-specific the crawler needs.
// Selectors WILL break when the site changes its markup; keep fallbacks ordered
// from most to least specific.
type Profile struct {
	Name string
	// SearchURL builds the listing address for a spec.
	SearchURL    func(SearchSpec) string
	RootSelector string
	Fields       Extractor
	Badge        Classifier
	Detail       Detail
	// MoreSelector is an optional "show more" control clicked after each scroll.
	MoreSelector string
	// BlockedTitles and BlockedPaths mark anti-bot or login interstitials.
	BlockedTitles []string
	BlockedPaths  []string
}

// Blocked reports whether the page looks like an interstitial instead of the feed
func (p Profile) Blocked(title, address string) bool {
	for _, t := range p.BlockedTitles {
		if t != "" && strings.Contains(title, t) {
			return true
		}
	}
	for _, path := range p.BlockedPaths {
		if path != "" && strings.Contains(address, path) {
			return true
		}
	}
	return false
}

// CloudflareTitles are the interstitial titles seen on every site so far
var CloudflareTitles = []string{"Attention Required", "Just a moment", "Cloudflare"}

// Options are the crawl tunables
type Options struct {
	MaxPasses    int
	StablePasses int
	ScrollStep   float64
	Pace         Pacer

	NavigationTimeout time.Duration
	FirstRootTimeout  time.Duration
	EnrichTimeout     time.Duration
	PopupTimeout      time.Duration
	MoreTimeout       time.Duration

	// RequireEmployer drops records whose employer could not be read.
	RequireEmployer bool
}

func DefaultOptions() Options {
	return Options{
		MaxPasses:         60,
		StablePasses:      4,
		ScrollStep:        2500,
		Pace:              Pacer{Min: 800 * time.Millisecond, Max: 1800 * time.Millisecond},
		NavigationTimeout: 60 * time.Second,
		FirstRootTimeout:  10 * time.Second,
		EnrichTimeout:     15 * time.Second,
		PopupTimeout:      5 * time.Second,
		MoreTimeout:       time.Second,
	}
}
