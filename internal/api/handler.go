// Package api exposes crawls over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"go-jobfeed-crawler/internal/scraper"
)

// Runner executes one crawl
type Runner interface {
	Run(ctx context.Context, spec scraper.SearchSpec) (*scraper.Result, error)
}

// ScrapeRequest is the POST /scrape body. Channel wins over EasyApply when both are set.
type ScrapeRequest struct {
	JobTitle  string `json:"job_title"`
	Location  string `json:"location"`
	EasyApply *bool  `json:"easy_apply"`
	Channel   string `json:"channel"`
	MaxJobs   *int   `json:"max_jobs"`
}

type ScrapeResponse struct {
	Count      int              `json:"count"`
	Jobs       []scraper.Record `json:"jobs"`
	CrawlID    string           `json:"crawl_id,omitempty"`
	StopReason string           `json:"stop_reason,omitempty"`
}

// Spec converts the request, using defaultCap when max_jobs is absent
func (r ScrapeRequest) Spec(defaultCap int) (scraper.SearchSpec, error) {
	spec := scraper.SearchSpec{
		Query:    r.JobTitle,
		Location: r.Location,
		Cap:      defaultCap,
	}
	switch {
	case r.Channel != "":
		ch, err := scraper.ParseChannel(r.Channel)
		if err != nil {
			return spec, err
		}
		spec.Channel = ch
	case r.EasyApply != nil && *r.EasyApply:
		spec.Channel = scraper.ChannelInstant
	case r.EasyApply != nil:
		spec.Channel = scraper.ChannelExternal
	default:
		return spec, errors.Wrap(scraper.ErrInvalidSpec, "easy_apply or channel is required")
	}
	if r.MaxJobs != nil {
		spec.Cap = *r.MaxJobs
	}
	return spec, spec.Validate()
}

type Handler struct {
	runner     Runner
	sem        *semaphore.Weighted
	timeout    time.Duration
	defaultCap int
}

// NewHandler allows at most maxConcurrent crawls at once; others wait for a slot
func NewHandler(runner Runner, maxConcurrent int64, timeout time.Duration, defaultCap int) *Handler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if defaultCap <= 0 {
		defaultCap = 50
	}
	return &Handler{
		runner:     runner,
		sem:        semaphore.NewWeighted(maxConcurrent),
		timeout:    timeout,
		defaultCap: defaultCap,
	}
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", h.Health)
	r.POST("/scrape", h.Scrape)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Job feed crawler API is running!",
		"status":  "healthy",
	})
}

func (h *Handler) Scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	spec, err := req.Spec(h.defaultCap)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.sem.Acquire(ctx, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for a browser"})
		return
	}
	defer h.sem.Release(1)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.runner.Run(ctx, spec)
	if err != nil {
		status := statusFor(err)
		log.Error().Err(err).Int("status", status).Str("query", spec.Query).Msg("❌ Scrape failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	jobs := res.Records
	if jobs == nil {
		jobs = []scraper.Record{}
	}
	c.JSON(http.StatusOK, ScrapeResponse{
		Count:      len(jobs),
		Jobs:       jobs,
		CrawlID:    res.CrawlID,
		StopReason: string(res.StopReason),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scraper.ErrInvalidSpec):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrNavigation), errors.Is(err, scraper.ErrBlocked):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("🌐 Request")
	}
}
