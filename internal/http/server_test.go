package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"purse/internal/cloud"
	"purse/internal/config"
	"purse/internal/core"
	"purse/internal/dom"
	"purse/internal/ledger"
	"purse/internal/ledger/memory"
	"purse/internal/log"
)

// countingTags counts tag reads per ordering and can be made to fail.
type countingTags struct {
	next   ledger.TagReader
	count  atomic.Int64
	amount atomic.Int64
	fail   atomic.Bool
}

func (c *countingTags) ReadTags(ctx context.Context, q core.TagQuery) ([]core.TagRecord, error) {
	if q.Ordering == core.OrderByAmount {
		c.amount.Add(1)
	} else {
		c.count.Add(1)
	}
	if c.fail.Load() {
		return nil, errors.New("tag endpoint down")
	}
	return c.next.ReadTags(ctx, q)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8081",
		LogLevel:           "info",
		User:               "me",
		TagsLimit:          100,
		FetchTimeout:       time.Second,
		HistogramThreshold: 6,
		CloudThreshold:     20,
		CloudBaseSize:      10,
		CloudScale:         50,
		CloudRotations:     "right-angle",
		SessionTTL:         time.Minute,
		RateLimitPerMinute: 100,
	}
}

// seed returns six months of 2026 for two authors, with 25 tags per month
// for me, and a single month of 2020.
func seed() []core.Expenditure {
	var items []core.Expenditure
	for m := 1; m <= 6; m++ {
		for i := 0; i < 25; i++ {
			items = append(items, core.Expenditure{
				Date:        time.Date(2026, time.Month(m), 1+i, 0, 0, 0, 0, time.UTC),
				Amount:      float64(10 + i),
				Author:      "me",
				Description: fmt.Sprintf("tag%02d", i),
			})
		}
		items = append(items, core.Expenditure{
			Date:        time.Date(2026, time.Month(m), 28, 0, 0, 0, 0, time.UTC),
			Amount:      40,
			Author:      "anna",
			Description: "rent share",
		})
	}
	items = append(items, core.Expenditure{
		Date: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 5, Author: "me", Description: "bus",
	})
	return items
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *countingTags) {
	t.Helper()
	store := memory.New(seed()...)
	tags := &countingTags{next: store}
	sources := ledger.Sources{
		Tags:     tags,
		Index:    store,
		Summary:  store,
		Search:   store,
		Checkers: []ledger.HealthChecker{store},
	}
	srv, err := NewServer(":0", cfg, sources, log.Discard())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.newRand = func() cloud.Rand { return rand.New(rand.NewPCG(1, 2)) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, tags
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s content type %q", path, ct)
		}
	}

	var ready struct {
		Status string `json:"status"`
	}
	rr := do(srv, http.MethodGet, "/readyz", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &ready); err != nil || ready.Status != "ready" {
		t.Fatalf("ready = %+v, err=%v", ready, err)
	}
}

func TestIndexRedirectsToCurrentYear(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	rr := do(srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d", rr.Code)
	}
	want := fmt.Sprintf("/tracker/expenditures/summary/%d/", time.Now().Year())
	if loc := rr.Header().Get("Location"); loc != want {
		t.Fatalf("location %q, want %q", loc, want)
	}
}

func TestSummaryEmbedsHistogram(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/tracker/expenditures/summary/2026/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`id="summary-table"`, `class="month-anchor"`, `class="average"`, `id="graph"`, "<svg", `id="tag-cloud-container"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("summary page lacks %s", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not set")
	}
}

func TestSummaryWithoutEnoughMonths(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/tracker/expenditures/summary/2020/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), `id="graph"`) {
		t.Fatal("one month must not draw a histogram")
	}

	if rr := do(srv, http.MethodGet, "/tracker/expenditures/summary/abc/", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("bad year status=%d", rr.Code)
	}
}

func graphPage(months int) string {
	var b strings.Builder
	b.WriteString(`<html><body><table>`)
	for i := 0; i < months; i++ {
		fmt.Fprintf(&b, `<tr><td><a class="month-anchor">%s</a></td><td class="amount">%d,50</td><td class="average">80</td></tr>`,
			time.Month(i+1), 100+i)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func TestGraphEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(srv, http.MethodPost, "/graph", graphPage(6))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "<svg") {
		t.Fatal("body is not an SVG")
	}

	rr = do(srv, http.MethodPost, "/graph?format=png", graphPage(6))
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rr.Body.String(), "\x89PNG") {
		t.Fatal("png magic missing")
	}

	if rr := do(srv, http.MethodPost, "/graph", graphPage(5)); rr.Code != http.StatusNoContent {
		t.Fatalf("five months status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodPost, "/graph?format=gif", graphPage(6)); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown format status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/graph", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /graph status=%d", rr.Code)
	}
}

func TestGraphRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	srv, _ := newTestServer(t, cfg)

	if rr := do(srv, http.MethodPost, "/graph", graphPage(6)); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := do(srv, http.MethodPost, "/graph", graphPage(6))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
}

func TestTagCloudSorting(t *testing.T) {
	srv, tags := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/ui/tag-cloud?year=2026&view=v1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("load status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `class="tag-cloud"`) {
		t.Fatal("cloud svg missing")
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"mode":"count"`) {
		t.Fatalf("trigger %q", trig)
	}

	for i := 0; i < 3; i++ {
		rr = do(srv, http.MethodGet, "/ui/tag-cloud?year=2026&view=v1&sort=amount", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("amount status=%d", rr.Code)
		}
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"mode":"amount"`) {
		t.Fatalf("trigger %q", trig)
	}
	if n := tags.amount.Load(); n != 1 {
		t.Fatalf("amount tags fetched %d times, want 1", n)
	}

	do(srv, http.MethodGet, "/ui/tag-cloud?year=2026&view=v1&sort=count", "")
	if n := tags.count.Load(); n != 1 {
		t.Fatalf("count tags fetched %d times, want 1", n)
	}

	if rr := do(srv, http.MethodGet, "/ui/tag-cloud?year=2026&sort=size", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad sort status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/ui/tag-cloud?year=2026&view=a%20b", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad view status=%d", rr.Code)
	}
}

// cloudLinks returns the load and sort-by-amount URLs of a summary page,
// checking that the cloud container starts hidden.
func cloudLinks(t *testing.T, body string) (load, amount string) {
	t.Helper()
	doc, err := dom.ParseString(body)
	if err != nil {
		t.Fatal(err)
	}
	container := doc.ElementByID("tag-cloud-container")
	if container == nil {
		t.Fatal("tag cloud container missing")
	}
	if _, hidden := container.Attr("hidden"); !hidden {
		t.Fatal("tag cloud container must start hidden")
	}
	load, _ = container.Attr("data-src")
	sortAmount := doc.ElementByID("sort-amount")
	if sortAmount == nil {
		t.Fatal("amount sort control missing")
	}
	amount, _ = sortAmount.Attr("href")
	return load, amount
}

func TestTagCloudFetchedOncePerPageView(t *testing.T) {
	srv, tags := newTestServer(t, testConfig())

	var views []string
	for view := 1; view <= 2; view++ {
		rr := do(srv, http.MethodGet, "/tracker/expenditures/summary/2026/", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("summary status=%d", rr.Code)
		}
		load, amount := cloudLinks(t, rr.Body.String())
		views = append(views, load)

		if rr := do(srv, http.MethodGet, load, ""); rr.Code != http.StatusOK {
			t.Fatalf("load status=%d", rr.Code)
		}
		for i := 0; i < 3; i++ {
			if rr := do(srv, http.MethodGet, amount, ""); rr.Code != http.StatusOK {
				t.Fatalf("amount status=%d", rr.Code)
			}
		}
		if n := tags.count.Load(); n != int64(view) {
			t.Fatalf("after page view %d: count tags fetched %d times", view, n)
		}
		if n := tags.amount.Load(); n != int64(view) {
			t.Fatalf("after page view %d: amount tags fetched %d times", view, n)
		}
	}
	if views[0] == views[1] {
		t.Fatalf("page views share the cloud URL %q", views[0])
	}

	// Without a view every request is a page view of its own.
	do(srv, http.MethodGet, "/ui/tag-cloud?year=2026", "")
	do(srv, http.MethodGet, "/ui/tag-cloud?year=2026", "")
	if n := tags.count.Load(); n != 4 {
		t.Fatalf("count tags fetched %d times, want 4", n)
	}
}

func TestTagCloudHidden(t *testing.T) {
	srv, tags := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/ui/tag-cloud?year=2020", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("few tags status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "tag-cloud:hidden") {
		t.Fatal("hidden trigger missing")
	}

	tags.fail.Store(true)
	if rr := do(srv, http.MethodGet, "/ui/tag-cloud?year=2025", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("failed fetch status=%d", rr.Code)
	}
	tags.fail.Store(false)
}

func TestTagsJSON(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/tracker/tags/?limit=5&ordering=-amount&year=2026", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got []core.TagRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 tags, got %d", len(got))
	}
	// rent and share: 6 x 40 = 240 each, ahead of tag24: 6 x 34 = 204.
	if got[0].Name != "rent" || got[1].Name != "share" {
		t.Fatalf("unexpected order %+v", got[:2])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Amount > got[i-1].Amount {
			t.Fatalf("not ordered by amount: %+v", got)
		}
	}

	rr = do(srv, http.MethodGet, "/tracker/tags/?year=1999", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty year: %d %q", rr.Code, rr.Body.String())
	}

	for _, q := range []string{"ordering=-size", "limit=x", "limit=0"} {
		if rr := do(srv, http.MethodGet, "/tracker/tags/?"+q, ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status=%d", q, rr.Code)
		}
	}
}

func TestSearchPage(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(srv, http.MethodGet, "/tracker/expenditures/search/?filter=rent&tag=share&toggle=menu", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`value="rent share"`,
		`autofocus=""`,
		`id="nav-search" class="active"`,
		`visibility: visible`,
		`id="results"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("search page lacks %s:\n%s", want, body)
		}
	}

	rr = do(srv, http.MethodGet, "/tracker/expenditures/search/?tag=tag03", "")
	if !strings.Contains(rr.Body.String(), `value="tag03"`) {
		t.Fatal("tag on an empty filter should become the filter")
	}
	if strings.Contains(rr.Body.String(), "visibility: visible") {
		t.Fatal("menu must stay hidden without toggle")
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	do(srv, http.MethodPost, "/graph", graphPage(6))

	rr := do(srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"http_requests_total 1", "histograms_built_total 1", "tag_cloud_sessions 0"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics lack %q:\n%s", want, body)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
