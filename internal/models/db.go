package models

import (
	"time"

	"go-jobfeed-crawler/internal/scraper"
)

// Job is a persisted listing. (Source, ExternalID) is unique; ExternalID is the
// canonical link the record was collected under.
type Job struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	URL        string    `json:"url"`
	Channel    string    `json:"channel"`
	CrawlID    string    `json:"crawl_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewJob(source, crawlID string, rec scraper.Record) *Job {
	return &Job{
		Source:     source,
		ExternalID: scraper.Canonicalize(rec.Link),
		Title:      rec.Role,
		Company:    rec.Employer,
		URL:        rec.Link,
		Channel:    string(rec.Channel),
		CrawlID:    crawlID,
	}
}
