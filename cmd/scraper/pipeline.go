package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/config"
	"go-jobfeed-crawler/internal/database"
	"go-jobfeed-crawler/internal/dedup"
	"go-jobfeed-crawler/internal/filter"
	"go-jobfeed-crawler/internal/models"
	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/internal/telegram"
)

// recordSender is the notification side of telegram.Bot
type recordSender interface {
	SendRecord(source string, rec scraper.Record) error
	SendStatus(message string) error
	SendError(err error) error
}

type pipeline struct {
	cfg     *config.Config
	source  string
	crawlID string
	// sendDelay spaces out messages to stay under the Telegram rate limit.
	sendDelay time.Duration
}

func (p *pipeline) exclude(records []scraper.Record) []scraper.Record {
	ex := filter.NewExcluder(p.cfg.ExcludeKeywords)
	kept := make([]scraper.Record, 0, len(records))
	for _, rec := range records {
		if k := ex.Match(rec.Role, rec.Employer); k != "" {
			log.Debug().Str("keyword", k).Msgf("      🚫 Excluded %s - %s", rec.Role, rec.Employer)
			continue
		}
		kept = append(kept, rec)
	}
	log.Info().Msgf("Filtered: %d/%d jobs", len(kept), len(records))
	return kept
}

func (p *pipeline) seenStore(ctx context.Context) (dedup.Store, func()) {
	if p.cfg.RedisAddr != "" {
		rc := dedup.NewRedisCache(p.cfg.RedisAddr, "jobfeed:seen:", dedup.DefaultTTL)
		err := rc.Ping(ctx)
		if err == nil {
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, using file cache")
		_ = rc.Close()
	}
	return dedup.NewJobCache(p.cfg.Paths.Cache, dedup.DefaultTTL), func() {}
}

func (p *pipeline) notify(ctx context.Context, records []scraper.Record) error {
	if !p.cfg.TelegramEnabled() {
		return errors.New("telegram is not configured")
	}
	bot, err := telegram.NewBot(p.cfg.Telegram.Token, p.cfg.Telegram.ChatID)
	if err != nil {
		return err
	}
	log.Info().Msg("🤖 Telegram Bot initialized.")

	store, closeStore := p.seenStore(ctx)
	defer closeStore()
	if p.sendDelay == 0 {
		p.sendDelay = time.Second
	}
	return p.send(ctx, bot, store, records)
}

// alert reports a failed crawl to Telegram
func (p *pipeline) alert(crawlErr error) error {
	if !p.cfg.TelegramEnabled() {
		return errors.New("telegram is not configured")
	}
	bot, err := telegram.NewBot(p.cfg.Telegram.Token, p.cfg.Telegram.ChatID)
	if err != nil {
		return err
	}
	return p.sendFailure(bot, crawlErr)
}

func (p *pipeline) sendFailure(bot recordSender, crawlErr error) error {
	return bot.SendError(errors.Wrapf(crawlErr, "%s crawl failed", p.source))
}

// wait pauses for d, reporting false when ctx ends first
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// send delivers records not seen before and marks only delivered ones as seen
func (p *pipeline) send(ctx context.Context, bot recordSender, store dedup.Store, records []scraper.Record) error {
	byLink := make(map[string]scraper.Record, len(records))
	links := make([]string, 0, len(records))
	for _, rec := range records {
		byLink[rec.Link] = rec
		links = append(links, rec.Link)
	}
	unseen, err := dedup.Unseen(ctx, store, links)
	if err != nil {
		return errors.Wrap(err, "dedup lookup")
	}
	log.Info().Msgf("🔍 Deduplication: %d total -> %d unseen jobs", len(records), len(unseen))

	var sent []string
	for i, link := range unseen {
		rec := byLink[link]
		log.Info().Msgf("  [%d/%d] %s @ %s", i+1, len(unseen), rec.Role, rec.Employer)
		if err := bot.SendRecord(p.source, rec); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to send job to Telegram")
			continue
		}
		sent = append(sent, link)
		if i < len(unseen)-1 && !wait(ctx, p.sendDelay) {
			log.Warn().Msgf("⚠️ Interrupted, %d jobs left unsent", len(unseen)-i-1)
			break
		}
	}
	// delivered records are marked even when the run was interrupted
	if err := store.Add(context.WithoutCancel(ctx), sent); err != nil {
		return errors.Wrap(err, "mark sent jobs as seen")
	}

	if len(unseen) > 0 {
		if err := bot.SendStatus(fmt.Sprintf("✅ Found %d new jobs, sent %d.", len(unseen), len(sent))); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to send status to Telegram")
		}
	}
	return nil
}

func (p *pipeline) persist(ctx context.Context, records []scraper.Record) error {
	if p.cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	repo, err := database.ConnectDB(ctx, p.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	jobs := make([]*models.Job, len(records))
	for i, rec := range records {
		jobs[i] = models.NewJob(p.source, p.crawlID, rec)
	}
	n, err := repo.SaveJobs(ctx, jobs)
	log.Info().Msgf("🗄️ Saved %d/%d jobs to database", n, len(jobs))
	return err
}

// saveJobs writes records to dir/job-search-YYYY-MM-DD.json
func saveJobs(dir string, records []scraper.Record, now time.Time) error {
	if len(records) == 0 {
		log.Info().Msg("ℹ️ No jobs to save.")
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create results directory")
	}

	filePath := filepath.Join(dir, fmt.Sprintf("job-search-%s.json", now.Format("2006-01-02")))
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal jobs")
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Wrap(err, "write results")
	}

	log.Info().Msgf("📁 Results saved to %s", filePath)
	return nil
}
