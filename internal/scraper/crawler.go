package scraper

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Crawler drives one listing feed: scan visible roots, scroll, repeat until the cap
// is reached, the feed stops yielding new records, or the pass ceiling is hit.
type Crawler struct {
	profile  Profile
	opts     Options
	enricher *Enricher
}

func NewCrawler(profile Profile, opts Options) *Crawler {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultOptions().MaxPasses
	}
	if opts.StablePasses <= 0 {
		opts.StablePasses = DefaultOptions().StablePasses
	}
	return &Crawler{
		profile:  profile,
		opts:     opts,
		enricher: NewEnricher(profile.Detail, opts.EnrichTimeout, opts.PopupTimeout),
	}
}

// crawlState is owned by a single Crawl call and dropped when it returns
type crawlState struct {
	pass         int
	lastCount    int
	stablePasses int
	processed    int
	scanned      int
	inspected    map[string]struct{}
	collector    *Collector
}

type run struct {
	*Crawler
	session Session
	page    Page
	spec    SearchSpec
	state   *crawlState
	logger  zerolog.Logger
}

// Crawl runs spec against the session. Fewer records than spec.Cap is a normal outcome.
// Only a failed initial navigation or a blocked feed page is reported as an error.
func (c *Crawler) Crawl(ctx context.Context, session Session, spec SearchSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	crawlID := uuid.NewString()
	logger := log.With().Str("crawl_id", crawlID).Str("site", c.profile.Name).Logger()

	// INIT
	target := c.profile.SearchURL(spec)
	page, err := session.NewPage()
	if err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(ErrNavigation, "failed to create page"), err)
	}
	defer closePage(page)

	// LOADING
	logger.Info().Str("url", target).Msgf("🌐 Visiting %s search: %q in %q", c.profile.Name, spec.Query, spec.Location)
	if err := page.Goto(target, c.opts.NavigationTimeout); err != nil {
		return nil, errors.WithSecondaryError(errors.Wrapf(ErrNavigation, "failed to load %s", target), err)
	}
	if c.profile.Blocked(page.Title(), page.URL()) {
		page.Capture(c.profile.Name + "-blocked")
		return nil, errors.Wrapf(ErrBlocked, "%s served %q", c.profile.Name, page.Title())
	}
	if err := page.WaitFor(c.profile.RootSelector, c.opts.FirstRootTimeout); err != nil {
		logger.Warn().Msg("⚠️ Job list not found yet, scanning anyway")
	}

	r := &run{
		Crawler: c,
		session: session,
		page:    page,
		spec:    spec,
		logger:  logger,
		state: &crawlState{
			inspected: make(map[string]struct{}),
			collector: NewCollector(spec.Cap),
		},
	}
	reason := r.loop(ctx)

	res := &Result{
		CrawlID:    crawlID,
		Records:    r.state.collector.Records(),
		Passes:     r.state.pass,
		Scanned:    r.state.scanned,
		StopReason: reason,
	}
	logger.Info().
		Int("records", len(res.Records)).
		Int("passes", res.Passes).
		Str("stop", string(reason)).
		Msgf("✅ %s crawl finished", c.profile.Name)
	return res, nil
}

func (r *run) loop(ctx context.Context) StopReason {
	st := r.state
	for st.pass < r.opts.MaxPasses {
		if ctx.Err() != nil {
			return StopDeadline
		}

		// SCANNING
		st.pass++
		accepted, stop := r.scan(ctx)
		if stop != "" {
			return stop
		}
		if accepted == 0 {
			st.stablePasses++
		} else {
			st.stablePasses = 0
		}
		st.lastCount = st.collector.Len()
		r.logger.Debug().
			Int("pass", st.pass).
			Int("accepted", accepted).
			Int("total", st.lastCount).
			Int("stable", st.stablePasses).
			Msg("📄 Pass done")
		if st.stablePasses >= r.opts.StablePasses {
			return StopFeedExhausted
		}
		if st.pass >= r.opts.MaxPasses {
			break
		}

		// SCROLLING
		r.scroll()
		if err := r.opts.Pace.Pause(ctx); err != nil {
			return StopDeadline
		}
	}
	return StopPassLimit
}

// scan inspects the roots not yet processed. A non-empty stop ends the crawl.
func (r *run) scan(ctx context.Context) (accepted int, stop StopReason) {
	st := r.state
	roots, err := r.page.Roots(r.profile.RootSelector)
	if err != nil {
		r.logger.Warn().Err(err).Msg("⚠️ Error finding job items")
		return 0, ""
	}
	if len(roots) < st.processed {
		// list re-rendered or virtualized; start over and let dedup absorb repeats
		st.processed = 0
	}
	for i := st.processed; i < len(roots); i++ {
		if ctx.Err() != nil {
			return accepted, StopDeadline
		}
		st.processed = i + 1
		rec, ok := r.inspect(roots[i])
		if !ok {
			continue
		}
		ok, capReached := st.collector.Offer(rec)
		if ok {
			accepted++
			r.logger.Info().Msgf("      ✅ %s - %s", rec.Role, rec.Employer)
		}
		if capReached {
			return accepted, StopCapReached
		}
	}
	return accepted, ""
}

// inspect turns one root into a candidate record, or reports false to discard it
func (r *run) inspect(root Root) (Record, bool) {
	if !r.profile.Badge.Classify(root).Admits(r.spec.Channel) {
		return Record{}, false
	}
	fields := r.profile.Fields.Extract(root)
	link := r.absolute(fields.Link)
	if link == "" {
		return Record{}, false
	}

	key := Canonicalize(link)
	if _, done := r.state.inspected[key]; done {
		return Record{}, false
	}
	r.state.inspected[key] = struct{}{}
	r.state.scanned++

	if r.opts.RequireEmployer && fields.Employer == "" {
		return Record{}, false
	}

	rec := Record{
		Role:     fields.Role,
		Employer: fields.Employer,
		Link:     key,
		Channel:  r.spec.Channel,
	}
	if r.spec.Channel == ChannelExternal {
		external, ok := r.enricher.ResolveExternal(r.session, key)
		if !ok {
			r.logger.Debug().Str("link", key).Msg("      ❌ Dropped, no external link")
			return Record{}, false
		}
		rec.Link = external
	}
	return rec, true
}

func (r *run) absolute(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(r.page.URL())
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func (r *run) scroll() {
	if err := r.page.Scroll(r.opts.ScrollStep); err != nil {
		r.logger.Debug().Err(err).Msg("⚠️ Scroll failed")
	}
	if r.profile.MoreSelector != "" {
		// the guest feed swaps infinite scroll for a button after a few pages
		_ = r.page.Click(r.profile.MoreSelector, r.opts.MoreTimeout)
	}
}
