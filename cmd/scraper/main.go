package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"go-jobfeed-crawler/internal/browser"
	"go-jobfeed-crawler/internal/config"
	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/internal/scraper/linkedin"
	"go-jobfeed-crawler/internal/scraper/topcv"
	"go-jobfeed-crawler/internal/snapshot"
	"go-jobfeed-crawler/utils"
)

var (
	configFile string
	site       string
	query      string
	location   string
	channel    string
	maxJobs    int
	replay     string
	notify     bool
	saveDB     bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Crawl a job listing feed once",
	Long: `Runs one listing crawl against LinkedIn (or a replayed snapshot), drops
excluded keywords, saves the records under the results directory and optionally
notifies Telegram and stores them in Postgres.

  scraper -q "Data Scientist" -l "New York" --channel instant --max 20
  scraper -q "Go" -l Berlin --channel external --replay testdata/site.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(configFile)
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		if err := utils.InitLogger(cfg.Log.Logger()); err != nil {
			return errors.Wrap(err, "init logger")
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", config.DefaultPath, "config file")
	f.StringVarP(&site, "site", "s", "linkedin", "listing site: linkedin or topcv")
	f.StringVarP(&query, "query", "q", "", "job title or keywords")
	f.StringVarP(&location, "location", "l", "", "search location")
	f.StringVar(&channel, "channel", "instant", "application channel: instant or external")
	f.IntVarP(&maxJobs, "max", "n", 0, "maximum records (default from config)")
	f.StringVar(&replay, "replay", "", "crawl a snapshot manifest instead of the live site")
	f.BoolVar(&notify, "notify", false, "send new records to Telegram")
	f.BoolVar(&saveDB, "save-db", false, "upsert records into Postgres (DATABASE_URL)")
	f.DurationVar(&timeout, "timeout", 10*time.Minute, "overall crawl deadline")
	_ = rootCmd.MarkFlagRequired("query")
	_ = rootCmd.MarkFlagRequired("location")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("❌ Execution failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ch, err := scraper.ParseChannel(channel)
	if err != nil {
		return err
	}
	spec := scraper.SearchSpec{Query: query, Location: location, Channel: ch, Cap: maxJobs}
	if spec.Cap <= 0 {
		spec.Cap = cfg.Crawl.DefaultCap
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	s, err := newScraper(site, cfg.Crawl.Options())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info().Msg("🚀 Starting job feed crawler...")
	session, closeSession, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer closeSession()

	p := &pipeline{cfg: cfg, source: s.Name()}
	log.Info().Msgf("▶️ Starting scraper: %s", s.Name())
	res, err := s.Scrape(ctx, session, spec)
	if err != nil {
		if notify {
			if alertErr := p.alert(err); alertErr != nil {
				log.Warn().Err(alertErr).Msg("⚠️ Failed to report error to Telegram")
			}
		}
		return errors.Wrapf(err, "scraper %s", s.Name())
	}
	log.Info().Msgf("✅ Scraper %s finished. Found %d jobs (%s).", s.Name(), len(res.Records), res.StopReason)
	p.crawlID = res.CrawlID

	records := p.exclude(res.Records)
	if err := saveJobs(cfg.Paths.Results, records, time.Now()); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to save results")
	}
	if saveDB {
		if err := p.persist(ctx, records); err != nil {
			log.Error().Err(err).Msg("❌ Failed to save jobs to database")
		}
	}
	if notify {
		if err := p.notify(ctx, records); err != nil {
			log.Error().Err(err).Msg("❌ Failed to notify")
		}
	}

	log.Info().Msg("🏁 Execution finished.")
	return nil
}

func newScraper(name string, opts scraper.Options) (scraper.Scraper, error) {
	switch name {
	case "linkedin":
		return linkedin.NewLinkedInScraper(opts), nil
	case "topcv":
		return topcv.NewTopCVScraper(opts), nil
	}
	return nil, errors.Newf("unknown site %q", name)
}

// openSession returns a replay session or a live browser context
func openSession(cfg *config.Config) (scraper.Session, func(), error) {
	if replay != "" {
		recorded, err := snapshot.LoadManifest(replay)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("manifest", replay).Msg("📼 Replaying snapshot")
		return recorded, func() {}, nil
	}

	pwManager, err := browser.NewPlaywright(browser.LaunchConfig{
		Headless:          *cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		NavigationTimeout: cfg.Crawl.Options().NavigationTimeout,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to init playwright")
	}

	cookies := loadCookies(cfg.Paths.Cookies, site)
	browserCtx, err := pwManager.NewContext(cookies)
	if err != nil {
		_ = pwManager.Close()
		return nil, nil, errors.Wrap(err, "failed to create browser context")
	}
	log.Info().Msg("✅ Browser initialized successfully!")

	session := browser.NewSession(browserCtx, utils.NewScreenShotDebugger(cfg.Paths.Screenshots))
	return session, func() {
		_ = session.Close()
		if err := pwManager.Close(); err != nil {
			log.Debug().Err(err).Msg("Error closing playwright")
		}
	}, nil
}

// loadCookies is best effort; both sites serve guests
func loadCookies(dir, name string) []playwright.OptionalCookie {
	path := filepath.Join(dir, "cookies-"+name+".json")
	cookies, err := browser.LoadCookies(path)
	if err != nil {
		log.Warn().Err(err).Msgf("⚠️ Could not load %s cookies. Continuing as guest.", name)
		return nil
	}
	log.Info().Msgf("🍪 Loaded %s cookies (%d)", name, len(cookies))
	return cookies
}
