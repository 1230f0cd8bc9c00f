// Package dedup remembers which listing links were already notified, across runs.
package dedup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a link stays seen
const DefaultTTL = 30 * 24 * time.Hour

// Store is a seen-links cache
type Store interface {
	IsSeen(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, keys []string) error
}

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// JobCache is a Store kept in a JSON file
type JobCache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	seen     map[string]int64
	now      func() time.Time
}

// NewJobCache creates or loads the cache file under cacheDir
func NewJobCache(cacheDir string, ttl time.Duration) *JobCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to create cache directory")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := &JobCache{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		ttl:      ttl,
		seen:     make(map[string]int64),
		now:      time.Now,
	}
	cache.load()
	return cache
}

// IsSeen checks if a URL has already been processed
func (jc *JobCache) IsSeen(_ context.Context, url string) (bool, error) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	ts, exists := jc.seen[url]
	if !exists {
		return false, nil
	}
	return ts > jc.cutoff(), nil
}

func (jc *JobCache) Add(_ context.Context, urls []string) error {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.now().UnixMilli()
	changed := false
	for _, url := range urls {
		if ts, exists := jc.seen[url]; !exists || ts <= jc.cutoff() {
			jc.seen[url] = now
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return jc.save()
}

// Len is the number of unexpired entries
func (jc *JobCache) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	n := 0
	cutoff := jc.cutoff()
	for _, ts := range jc.seen {
		if ts > cutoff {
			n++
		}
	}
	return n
}

func (jc *JobCache) cutoff() int64 {
	return jc.now().Add(-jc.ttl).UnixMilli()
}

// load reads the cache from disk, dropping expired entries
func (jc *JobCache) load() {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("⚠️ Failed to read seen_jobs.json")
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to parse seen_jobs.json")
		return
	}

	cutoff := jc.cutoff()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.URL] = e.Timestamp
			loaded++
		}
	}
	log.Info().Msgf("📋 Loaded %d previously seen jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the unexpired entries to disk; callers hold mu
func (jc *JobCache) save() error {
	cutoff := jc.cutoff()
	entries := make([]seenEntry, 0, len(jc.seen))
	for url, ts := range jc.seen {
		if ts > cutoff {
			entries = append(entries, seenEntry{URL: url, Timestamp: ts})
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal seen jobs")
	}
	if err := os.WriteFile(jc.filePath, data, 0644); err != nil {
		return errors.Wrap(err, "write seen_jobs.json")
	}
	log.Debug().Msgf("💾 Saved %d seen jobs to cache", len(entries))
	return nil
}

// Unseen filters keys down to the ones the store has not seen
func Unseen(ctx context.Context, store Store, keys []string) ([]string, error) {
	var out []string
	for _, k := range keys {
		seen, err := store.IsSeen(ctx, k)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, k)
		}
	}
	return out, nil
}
