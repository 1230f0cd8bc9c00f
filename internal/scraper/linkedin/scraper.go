package linkedin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/scraper"
)

const searchURL = "https://www.linkedin.com/jobs/search/"

type LinkedInScraper struct {
	opts scraper.Options
}

func NewLinkedInScraper(opts scraper.Options) *LinkedInScraper {
	return &LinkedInScraper{opts: opts}
}

func (s *LinkedInScraper) Name() string {
	return "LinkedIn"
}

func (s *LinkedInScraper) Scrape(ctx context.Context, session scraper.Session, spec scraper.SearchSpec) (*scraper.Result, error) {
	log.Info().Msgf("💼 Searching LinkedIn Jobs (%s channel)...", spec.Channel)
	return scraper.NewCrawler(Profile(), s.opts).Crawl(ctx, session, spec)
}

// BuildSearchURL encodes keyword and location; the instant channel adds the Easy Apply filter
func BuildSearchURL(spec scraper.SearchSpec) string {
	u := fmt.Sprintf("%s?keywords=%s&location=%s", searchURL, url.QueryEscape(spec.Query), url.QueryEscape(spec.Location))
	if spec.Channel == scraper.ChannelInstant {
		u += "&f_AL=true"
	}
	return u
}

// UnwrapApply extracts the destination of LinkedIn's externalApply redirect
func UnwrapApply(link string) string {
	u, err := url.Parse(link)
	if err != nil || !strings.HasSuffix(u.Hostname(), "linkedin.com") {
		return ""
	}
	dest := u.Query().Get("url")
	if !strings.HasPrefix(dest, "http") {
		return ""
	}
	return dest
}

func isJobView(href string) bool {
	return strings.Contains(href, "/jobs/view/") || strings.Contains(href, "/jobs/collections/")
}

// Profile covers both the public guest feed (ul.jobs-search__results-list) and the
// signed-in two-pane layout (scaffold-layout list items).
// These WILL break when LinkedIn changes their markup.
func Profile() scraper.Profile {
	return scraper.Profile{
		Name:         "LinkedIn",
		SearchURL:    BuildSearchURL,
		RootSelector: "ul.jobs-search__results-list > li, li.scaffold-layout__list-item, li.jobs-search-results__list-item",
		Fields: scraper.Extractor{
			Role: scraper.Text(
				"h3.base-search-card__title",
				"a.job-card-list__title--link strong",
				".job-card-list__title",
				"h3",
			),
			Employer: scraper.Text(
				"h4.base-search-card__subtitle a",
				"h4.base-search-card__subtitle",
				".artdeco-entity-lockup__subtitle span",
				".job-card-container__primary-description",
				"a.hidden-nested-link",
			),
			Link: scraper.Chain{
				{Selector: "a.base-card__full-link", Attr: "href"},
				{Selector: "a.job-card-container__link", Attr: "href"},
				{Selector: "a", Attr: "href", Accept: isJobView},
				{Selector: "a", Attr: "href"},
			},
		},
		Badge: scraper.Classifier{
			Selectors: []string{
				".job-posting-benefits__text",
				".job-card-container__apply-method",
				".job-card-container__footer-item",
				".result-benefits__text",
			},
			Marker: "Easy Apply",
		},
		Detail: scraper.Detail{
			ReadySelector: ".top-card-layout__title, .job-details-jobs-unified-top-card__job-title, h1",
			Affordances: []scraper.Affordance{
				{Rule: scraper.Rule{Selector: `a[data-tracking-control-name="public_jobs_apply-link-offsite_sign-up-modal"]`, Attr: "href"}},
				{Rule: scraper.Rule{Selector: "a.apply-button--link", Attr: "href"}},
				{Rule: scraper.Rule{Selector: "a.jobs-apply-button", Attr: "href"}},
				{Rule: scraper.Rule{Selector: "button.jobs-apply-button"}, Click: true},
				{Rule: scraper.Rule{Selector: "button.apply-button"}, Click: true},
			},
			Unwrap: UnwrapApply,
		},
		MoreSelector:  "button.infinite-scroller__show-more-button--visible",
		BlockedTitles: append([]string{"Security Verification", "Sign Up | LinkedIn"}, scraper.CloudflareTitles...),
		BlockedPaths:  []string{"/authwall", "/checkpoint/"},
	}
}
