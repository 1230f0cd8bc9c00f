package topcv

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/filter"
	"go-jobfeed-crawler/internal/scraper"
)

const baseURL = "https://www.topcv.vn/"

type TopCVScraper struct {
	opts scraper.Options
}

func NewTopCVScraper(opts scraper.Options) *TopCVScraper {
	return &TopCVScraper{opts: opts}
}

func (s *TopCVScraper) Name() string {
	return "TopCV"
}

func (s *TopCVScraper) Scrape(ctx context.Context, session scraper.Session, spec scraper.SearchSpec) (*scraper.Result, error) {
	log.Info().Msg("📋 Searching TopCV.vn...")
	return scraper.NewCrawler(Profile(), s.opts).Crawl(ctx, session, spec)
}

// slugify: "Golang Developer" -> "golang-developer", "Hồ Chí Minh" -> "ho-chi-minh"
func slugify(s string) string {
	return strings.Join(strings.Fields(filter.Normalize(s)), "-")
}

// BuildSearchURL uses TopCV's slug path. Every TopCV listing is applied to on-site,
// so the channel does not change the address.
func BuildSearchURL(spec scraper.SearchSpec) string {
	path := "tim-viec-lam-" + url.PathEscape(slugify(spec.Query))
	if loc := slugify(spec.Location); loc != "" {
		path += "-tai-" + url.PathEscape(loc)
	}
	return fmt.Sprintf("%s%s?sort=new&type_keyword=1", baseURL, path)
}

// Profile for the TopCV search results list.
// These WILL break when TopCV changes their markup.
func Profile() scraper.Profile {
	title := []string{"h3.title a", ".title-block a", "a.title"}
	return scraper.Profile{
		Name:         "TopCV",
		SearchURL:    BuildSearchURL,
		RootSelector: ".job-item-search-result, .job-item",
		Fields: scraper.Extractor{
			Role:     scraper.Text(title...),
			Employer: scraper.Text(".company-name", "a.company"),
			Link:     scraper.Href(title...),
		},
		Badge: scraper.Classifier{
			Selectors: []string{".btn-apply", ".box-apply", ".quick-apply"},
			// matched accent-insensitively, so "Ứng tuyển" and "Ung tuyen" both count
			Marker: "Ung tuyen",
		},
		// no external apply affordance on TopCV detail pages
		Detail: scraper.Detail{
			ReadySelector: ".job-detail__info--title, h1",
		},
		BlockedTitles: scraper.CloudflareTitles,
	}
}
