package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"purse/internal/core"
	"purse/internal/ledger/memory"
	"purse/internal/ledger/remote"
	"purse/internal/log"
)

func page(months int) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div id="summary"><table>`)
	for i := 0; i < months; i++ {
		fmt.Fprintf(&b, `<tr><td><a class="month-anchor">%s</a></td><td class="amount">%d,25</td></tr>`, time.Month(i+1), 50+10*i)
	}
	b.WriteString(`</table></div></body></html>`)
	return []byte(b.String())
}

func TestRenderHistogram(t *testing.T) {
	img, records, err := renderHistogram(page(6), "svg", "", 6)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if records != 6 || !bytes.Contains(img, []byte("<svg")) {
		t.Fatalf("records=%d svg=%t", records, bytes.Contains(img, []byte("<svg")))
	}

	img, records, err = renderHistogram(page(5), "png", "summary", 6)
	if err != nil || img != nil || records != 5 {
		t.Fatalf("below threshold: img=%d records=%d err=%v", len(img), records, err)
	}

	if _, _, err := renderHistogram(page(6), "gif", "", 6); err == nil {
		t.Fatal("unknown format must fail")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]string{"graph.svg": "svg", "GRAPH.SVG": "svg", "graph.png": "png", "-": "png"}
	for path, want := range cases {
		if got := formatFromPath(path); got != want {
			t.Fatalf("formatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHistogramCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	out := filepath.Join(dir, "graph.svg")
	if err := os.WriteFile(in, page(7), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewHistogramCmd()
	cmd.SetArgs([]string{"--in", in, "--out", out, "--scope", "summary"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("output not an svg: %v", err)
	}

	var stderr bytes.Buffer
	cmd = NewHistogramCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--in", in, "--out", filepath.Join(dir, "none.png"), "--threshold", "12"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "none.png")); !os.IsNotExist(err) {
		t.Fatal("nothing should be written below the threshold")
	}
	if !strings.Contains(stderr.String(), "nothing drawn") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func ledgerItems(tags int) []core.Expenditure {
	items := make([]core.Expenditure, 0, tags)
	for i := 0; i < tags; i++ {
		items = append(items, core.Expenditure{
			Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Amount:      float64(i + 1),
			Author:      "me",
			Description: fmt.Sprintf("word%02d", i),
		})
	}
	return items
}

func TestRenderCloudFromLedger(t *testing.T) {
	store := memory.New(ledgerItems(25)...)
	opts := cloudOptions{year: 2024, sort: "count", limit: 100, threshold: 20, rotations: "diagonal", seed: 42}

	svg, words, err := renderCloud(context.Background(), store, opts, log.Discard())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if words != 25 || !bytes.Contains(svg, []byte(`class="tag-cloud"`)) {
		t.Fatalf("words=%d svg=%s", words, svg)
	}

	again, _, _ := renderCloud(context.Background(), store, opts, log.Discard())
	if !bytes.Equal(svg, again) {
		t.Fatal("the same seed must give the same layout")
	}

	opts.year = 2023
	svg, words, err = renderCloud(context.Background(), store, opts, log.Discard())
	if err != nil || svg != nil || words != 0 {
		t.Fatalf("empty year: svg=%d words=%d err=%v", len(svg), words, err)
	}

	opts.sort = "size"
	if _, _, err := renderCloud(context.Background(), store, opts, log.Discard()); err == nil {
		t.Fatal("unknown sort must fail")
	}
}

func TestRenderCloudFromEndpoint(t *testing.T) {
	var ordering string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ordering = r.URL.Query().Get("ordering")
		recs := make([]core.TagRecord, 0, 22)
		for i := 0; i < 22; i++ {
			recs = append(recs, core.TagRecord{Name: fmt.Sprintf("tag%02d", i), Count: 22 - i, Amount: float64(i)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(recs)
	}))
	defer srv.Close()

	client, err := remote.New(srv.URL, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := cloudOptions{year: 2024, sort: "amount", limit: 100, threshold: 20, rotations: "right-angle", seed: 7}
	svg, words, err := renderCloud(context.Background(), client, opts, log.Discard())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ordering != "-amount" {
		t.Fatalf("ordering sent = %q", ordering)
	}
	if svg == nil || words != 22 {
		t.Fatalf("words=%d", words)
	}
}

func TestOpenTagSource(t *testing.T) {
	if _, err := openTagSource(cloudOptions{}, log.Discard()); err == nil {
		t.Fatal("a source is required")
	}
	if _, err := openTagSource(cloudOptions{tagsURL: "ftp://example.com"}, log.Discard()); err == nil {
		t.Fatal("non-http endpoints must be refused")
	}
	if _, err := openTagSource(cloudOptions{ledger: filepath.Join(t.TempDir(), "missing.txt")}, log.Discard()); err == nil {
		t.Fatal("missing ledger must fail")
	}
}

func TestPageTagSource(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="tags">`)
	for i := 0; i < 21; i++ {
		fmt.Fprintf(&b, `<a class="tag" data-count="%d" data-amount="%d,5">tag%02d</a>`, i+1, 100-i, i)
	}
	b.WriteString(`<a class="tag">nocount</a></div></body></html>`)
	path := filepath.Join(t.TempDir(), "search.html")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := openTagSource(cloudOptions{page: path}, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	byAmount, err := src.ReadTags(context.Background(), core.TagQuery{Limit: 3, Ordering: core.OrderByAmount})
	if err != nil {
		t.Fatal(err)
	}
	if len(byAmount) != 3 || byAmount[0].Name != "tag00" || byAmount[0].Amount != 100.5 {
		t.Fatalf("by amount: %+v", byAmount)
	}
	byCount, _ := src.ReadTags(context.Background(), core.TagQuery{Ordering: core.OrderByCount})
	if len(byCount) != 21 || byCount[0].Name != "tag20" {
		t.Fatalf("by count: %+v", byCount)
	}

	opts := cloudOptions{year: 2026, sort: "amount", limit: 100, threshold: 20, rotations: "right-angle", seed: 3}
	svg, words, err := renderCloud(context.Background(), src, opts, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if svg == nil || words != 21 {
		t.Fatalf("words=%d", words)
	}

	if _, err := openTagSource(cloudOptions{page: filepath.Join(t.TempDir(), "missing.html")}, log.Discard()); err == nil {
		t.Fatal("missing page must fail")
	}
}
