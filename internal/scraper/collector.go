package scraper

import "strings"

// Canonicalize strips the query string and fragment from link.
// Listing URLs carry tracking params (?refId=..., ?trackingId=...) which make the
// same job appear under different URLs.
func Canonicalize(link string) string {
	link = strings.TrimSpace(link)
	if idx := strings.IndexAny(link, "?#"); idx != -1 {
		link = link[:idx]
	}
	return link
}

// Collector is the ordered, crawl-scoped set of accepted records
type Collector struct {
	limit   int
	seen    map[string]struct{}
	records []Record
}

func NewCollector(limit int) *Collector {
	return &Collector{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Offer accepts rec unless its canonical link was seen before or the cap is already full.
func (c *Collector) Offer(rec Record) (accepted, capReached bool) {
	key := Canonicalize(rec.Link)
	if key == "" || c.Full() {
		return false, c.Full()
	}
	if _, dup := c.seen[key]; dup {
		return false, false
	}
	c.seen[key] = struct{}{}
	rec.Link = key
	c.records = append(c.records, rec)
	return true, c.Full()
}

func (c *Collector) Full() bool {
	return len(c.records) >= c.limit
}

func (c *Collector) Len() int {
	return len(c.records)
}

// Records returns a copy in first-seen order
func (c *Collector) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}
