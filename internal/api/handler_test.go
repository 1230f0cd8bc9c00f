package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/internal/scraper/linkedin"
	"go-jobfeed-crawler/internal/snapshot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	got    scraper.SearchSpec
	result *scraper.Result
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, spec scraper.SearchSpec) (*scraper.Result, error) {
	f.calls.Add(1)
	f.got = spec
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return f.result, f.err
}

func post(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := NewRouter(NewHandler(&fakeRunner{}, 1, 0, 50))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestScrape_Success(t *testing.T) {
	runner := &fakeRunner{result: &scraper.Result{
		CrawlID:    "c1",
		StopReason: scraper.StopFeedExhausted,
		Records: []scraper.Record{
			{Role: "Data Scientist", Employer: "Acme", Link: "https://www.linkedin.com/jobs/view/1", Channel: scraper.ChannelInstant},
		},
	}}
	router := NewRouter(NewHandler(runner, 1, time.Minute, 50))

	w := post(t, router, `{"job_title":"Data Scientist","location":"New York","easy_apply":true,"max_jobs":100}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count, "fewer than requested is still success")
	assert.Equal(t, "Acme", resp.Jobs[0].Employer)
	assert.Equal(t, "feed_exhausted", resp.StopReason)
	assert.Contains(t, w.Body.String(), `"company":"Acme"`)

	assert.Equal(t, scraper.SearchSpec{Query: "Data Scientist", Location: "New York", Channel: scraper.ChannelInstant, Cap: 100}, runner.got)
}

func TestScrape_EmptyResultIsEmptyList(t *testing.T) {
	router := NewRouter(NewHandler(&fakeRunner{result: &scraper.Result{}}, 1, 0, 50))

	w := post(t, router, `{"job_title":"x","location":"y","easy_apply":false}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"jobs":[]}`, w.Body.String())
}

func TestScrapeRequest_Spec(t *testing.T) {
	yes, no := true, false
	one := 1
	tests := []struct {
		name     string
		req      ScrapeRequest
		expected scraper.SearchSpec
		wantErr  bool
	}{
		{
			name:     "Easy apply false means external, default cap",
			req:      ScrapeRequest{JobTitle: "Go", Location: "Berlin", EasyApply: &no},
			expected: scraper.SearchSpec{Query: "Go", Location: "Berlin", Channel: scraper.ChannelExternal, Cap: 50},
		},
		{
			name:     "Channel overrides easy apply",
			req:      ScrapeRequest{JobTitle: "Go", Location: "Berlin", EasyApply: &yes, Channel: "external", MaxJobs: &one},
			expected: scraper.SearchSpec{Query: "Go", Location: "Berlin", Channel: scraper.ChannelExternal, Cap: 1},
		},
		{name: "No channel at all", req: ScrapeRequest{JobTitle: "Go", Location: "Berlin"}, wantErr: true},
		{name: "Unknown channel", req: ScrapeRequest{JobTitle: "Go", Location: "Berlin", Channel: "fax"}, wantErr: true},
		{name: "Missing title", req: ScrapeRequest{Location: "Berlin", EasyApply: &yes}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := tt.req.Spec(50)
			if tt.wantErr {
				assert.ErrorIs(t, err, scraper.ErrInvalidSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestScrape_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "Malformed JSON", body: `{"job_title":`, status: http.StatusBadRequest},
		{name: "Zero cap", body: `{"job_title":"a","location":"b","easy_apply":true,"max_jobs":0}`, status: http.StatusBadRequest},
		{name: "Navigation failure", body: `{"job_title":"a","location":"b","easy_apply":true}`,
			err: errors.Wrap(scraper.ErrNavigation, "timeout"), status: http.StatusBadGateway},
		{name: "Blocked", body: `{"job_title":"a","location":"b","easy_apply":true}`,
			err: errors.Wrap(scraper.ErrBlocked, "authwall"), status: http.StatusBadGateway},
		{name: "Unexpected", body: `{"job_title":"a","location":"b","easy_apply":true}`,
			err: errors.New("browser crashed"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.err, result: &scraper.Result{}}
			w := post(t, NewRouter(NewHandler(runner, 1, 0, 50)), tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestScrape_WaitsForSlot(t *testing.T) {
	runner := &fakeRunner{result: &scraper.Result{}, block: make(chan struct{})}
	h := NewHandler(runner, 1, 0, 50)
	router := NewRouter(h)

	done := make(chan int)
	go func() {
		done <- post(t, router, `{"job_title":"a","location":"b","easy_apply":true}`).Code
	}()
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// the second request gives up waiting once its context ends
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/scrape",
		strings.NewReader(`{"job_title":"a","location":"b","easy_apply":true}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, int32(1), runner.calls.Load())

	close(runner.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestScrape_ReplayedLinkedIn(t *testing.T) {
	spec := scraper.SearchSpec{Query: "Data Scientist", Location: "New York", Channel: scraper.ChannelInstant}
	feed := `<ul class="jobs-search__results-list">
	  <li><a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/1?trk=a"></a>
	      <h3 class="base-search-card__title">Data Scientist</h3>
	      <h4 class="base-search-card__subtitle">Acme</h4>
	      <span class="job-posting-benefits__text">Easy Apply</span></li>
	</ul>`
	site := snapshot.NewSite(linkedin.BuildSearchURL(spec), feed)

	opts := scraper.DefaultOptions()
	opts.Pace = scraper.Pacer{}
	runner := SessionRunner{Session: site, Scraper: linkedin.NewLinkedInScraper(opts)}

	w := post(t, NewRouter(NewHandler(runner, 1, 0, 50)), `{"job_title":"Data Scientist","location":"New York","easy_apply":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1", resp.Jobs[0].Link)
}
