// Shared types for every listing site
// Ensure consistency

package scraper

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidSpec = errors.New("invalid search spec")
	ErrNavigation  = errors.New("navigation failed")
	ErrBlocked     = errors.New("blocked by anti-bot interstitial")
)

// Channel is the application pathway of a listing
type Channel string

const (
	ChannelUnclassified Channel = ""
	ChannelInstant      Channel = "instant"
	ChannelExternal     Channel = "external"
)

// ParseChannel accepts "instant"/"external" and a few common aliases
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instant", "easy_apply", "easy-apply", "easyapply":
		return ChannelInstant, nil
	case "external", "offsite", "company_site":
		return ChannelExternal, nil
	}
	return ChannelUnclassified, errors.Wrapf(ErrInvalidSpec, "unknown channel %q", s)
}

// Admits reports whether a root tagged c may be kept for a crawl that wants desired.
// External listings carry no badge, so anything not tagged instant is a candidate
// until enrichment confirms it.
func (c Channel) Admits(desired Channel) bool {
	switch desired {
	case ChannelInstant:
		return c == ChannelInstant
	case ChannelExternal:
		return c != ChannelInstant
	}
	return false
}

type SearchSpec struct {
	Query    string
	Location string
	Channel  Channel
	Cap      int
}

func (s SearchSpec) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return errors.Wrap(ErrInvalidSpec, "query is required")
	}
	if strings.TrimSpace(s.Location) == "" {
		return errors.Wrap(ErrInvalidSpec, "location is required")
	}
	if s.Channel != ChannelInstant && s.Channel != ChannelExternal {
		return errors.Wrapf(ErrInvalidSpec, "channel must be instant or external, got %q", s.Channel)
	}
	if s.Cap <= 0 {
		return errors.Wrapf(ErrInvalidSpec, "cap must be positive, got %d", s.Cap)
	}
	return nil
}

type Record struct {
	Role     string  `json:"role"`
	Employer string  `json:"company"`
	Link     string  `json:"link"`
	Channel  Channel `json:"channel,omitempty"`
}

type StopReason string

const (
	StopCapReached    StopReason = "cap_reached"
	StopFeedExhausted StopReason = "feed_exhausted"
	StopPassLimit     StopReason = "pass_limit"
	StopDeadline      StopReason = "deadline"
)

// Result is what one crawl hands back to the request layer
type Result struct {
	CrawlID    string
	Records    []Record
	Passes     int
	Scanned    int
	StopReason StopReason
}

// Scraper defines the interface that all listing sites must implement
type Scraper interface {
	//Scrape one search spec using the given browser session
	Scrape(ctx context.Context, session Session, spec SearchSpec) (*Result, error)

	//Name is the platform name (LinkedIn, ...)
	Name() string
}
