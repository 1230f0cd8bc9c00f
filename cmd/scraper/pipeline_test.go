package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfeed-crawler/internal/config"
	"go-jobfeed-crawler/internal/dedup"
	"go-jobfeed-crawler/internal/scraper"
)

type fakeBot struct {
	sent     []string
	statuses []string
	errs     []string
	failOn   string
	onSend   func()
}

func (f *fakeBot) SendRecord(_ string, rec scraper.Record) error {
	if rec.Link == f.failOn {
		return errors.New("429")
	}
	f.sent = append(f.sent, rec.Link)
	if f.onSend != nil {
		f.onSend()
	}
	return nil
}

func (f *fakeBot) SendError(err error) error {
	f.errs = append(f.errs, err.Error())
	return nil
}

func (f *fakeBot) SendStatus(message string) error {
	f.statuses = append(f.statuses, message)
	return nil
}

var sample = []scraper.Record{
	{Role: "Data Scientist", Employer: "Acme", Link: "https://jobs.example.com/1", Channel: scraper.ChannelInstant},
	{Role: "Senior Data Scientist", Employer: "Globex", Link: "https://jobs.example.com/2", Channel: scraper.ChannelInstant},
	{Role: "Analyst", Employer: "Công ty Đông Á", Link: "https://jobs.example.com/3", Channel: scraper.ChannelInstant},
}

func TestPipeline_Exclude(t *testing.T) {
	p := &pipeline{cfg: &config.Config{ExcludeKeywords: []string{"senior", "dong a"}}}

	kept := p.exclude(sample)

	require.Len(t, kept, 1)
	assert.Equal(t, "https://jobs.example.com/1", kept[0].Link)
}

func TestPipeline_SendMarksOnlyDelivered(t *testing.T) {
	ctx := context.Background()
	store := dedup.NewJobCache(t.TempDir(), time.Hour)
	require.NoError(t, store.Add(ctx, []string{"https://jobs.example.com/1"}))
	bot := &fakeBot{failOn: "https://jobs.example.com/3"}
	p := &pipeline{source: "LinkedIn"}

	require.NoError(t, p.send(ctx, bot, store, sample))

	assert.Equal(t, []string{"https://jobs.example.com/2"}, bot.sent)
	require.Len(t, bot.statuses, 1)
	assert.Contains(t, bot.statuses[0], "2 new jobs, sent 1")

	failed, _ := store.IsSeen(ctx, "https://jobs.example.com/3")
	assert.False(t, failed, "undelivered records stay unseen for the next run")
	delivered, _ := store.IsSeen(ctx, "https://jobs.example.com/2")
	assert.True(t, delivered)
}

func TestPipeline_SendNothingNew(t *testing.T) {
	ctx := context.Background()
	store := dedup.NewJobCache(t.TempDir(), time.Hour)
	require.NoError(t, store.Add(ctx, []string{"https://jobs.example.com/1"}))
	bot := &fakeBot{}

	require.NoError(t, (&pipeline{}).send(ctx, bot, store, sample[:1]))
	assert.Empty(t, bot.sent)
	assert.Empty(t, bot.statuses)
}

func TestPipeline_SendStopsWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := dedup.NewJobCache(t.TempDir(), time.Hour)
	bot := &fakeBot{onSend: cancel}
	p := &pipeline{source: "LinkedIn", sendDelay: time.Hour}

	require.NoError(t, p.send(ctx, bot, store, sample))

	assert.Equal(t, []string{"https://jobs.example.com/1"}, bot.sent)
	delivered, _ := store.IsSeen(context.Background(), "https://jobs.example.com/1")
	assert.True(t, delivered, "delivered before the interrupt")
	pending, _ := store.IsSeen(context.Background(), "https://jobs.example.com/2")
	assert.False(t, pending)
}

func TestPipeline_SendFailure(t *testing.T) {
	bot := &fakeBot{}
	p := &pipeline{source: "TopCV"}

	require.NoError(t, p.sendFailure(bot, errors.Wrap(scraper.ErrBlocked, "TopCV served a challenge")))

	require.Len(t, bot.errs, 1)
	assert.Contains(t, bot.errs[0], "TopCV crawl failed")
	assert.Contains(t, bot.errs[0], "served a challenge")
}

func TestPipeline_AlertWithoutTelegram(t *testing.T) {
	p := &pipeline{cfg: &config.Config{}, source: "LinkedIn"}
	assert.Error(t, p.alert(scraper.ErrNavigation))
}

func TestPipeline_NotifyWithoutTelegram(t *testing.T) {
	p := &pipeline{cfg: &config.Config{}}
	assert.Error(t, p.notify(context.Background(), sample))
}

func TestSaveJobs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, saveJobs(dir, sample[:1], now))

	data, err := os.ReadFile(filepath.Join(dir, "job-search-2024-05-01.json"))
	require.NoError(t, err)
	var got []map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []map[string]string{{
		"role": "Data Scientist", "company": "Acme", "link": "https://jobs.example.com/1", "channel": "instant",
	}}, got)

	empty := filepath.Join(t.TempDir(), "none")
	require.NoError(t, saveJobs(empty, nil, now))
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
}

func TestNewScraper(t *testing.T) {
	s, err := newScraper("topcv", scraper.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "TopCV", s.Name())

	s, err = newScraper("linkedin", scraper.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "LinkedIn", s.Name())

	_, err = newScraper("monster", scraper.DefaultOptions())
	assert.Error(t, err)
}
