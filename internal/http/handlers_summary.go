package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"purse/internal/chart"
	"purse/internal/dom"
	"purse/internal/log"
	"purse/internal/scrape"
)

// summaryTableID is the id of the table the histogram is scraped from.
const summaryTableID = "summary-table"

type summaryTable struct {
	ID     string
	Year   int
	Shared bool
	Rows   []MonthRow
	Total  string
}

type summaryPage struct {
	Year     int
	User     string
	Prev     int
	Next     int
	View     string
	Table    template.HTML
	Graph    template.HTML
	HasGraph bool
}

// histogram scrapes page and draws its histogram in format. It reports false
// when the page holds too few months to draw.
func (s *Server) histogram(ctx context.Context, page []byte, scope, format string) ([]byte, bool, error) {
	doc, err := dom.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, false, fmt.Errorf("parse page: %w", err)
	}
	opts := scrape.DefaultOptions()
	opts.Scope = scope
	ds := scrape.Scrape(doc, opts)
	log.FromContext(ctx).WithComponent(log.ComponentScrape).DebugContext(ctx, "Page scraped",
		log.FieldOperation, log.OpScrape,
		log.FieldRecords, len(ds.Records),
		log.FieldAverages, ds.HasAverages)

	layout, ok := chart.Build(s.chartCfg, ds.Records)
	if !ok {
		s.metrics.chartsSkipped.Add(1)
		log.FromContext(ctx).WithComponent(log.ComponentChart).DebugContext(ctx, "Histogram below threshold",
			log.FieldRecords, len(ds.Records))
		return nil, false, nil
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, layout, chart.Formats[format]); err != nil {
		return nil, false, err
	}
	s.metrics.chartsBuilt.Add(1)
	log.NewStructuredLogger(log.FromContext(ctx)).LogChartBuilt(ctx, len(ds.Records), ds.HasAverages, format)
	return buf.Bytes(), true, nil
}

// handleSummary renders the year summary table, then scrapes the rendered
// table to embed its histogram.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.FetchTimeout)
	defer cancel()

	summary, err := s.sources.Summary.YearSummary(ctx, year, s.cfg.User)
	if err != nil {
		fields := log.NewFields()
		fields[log.FieldYear] = year
		events(r).LogError(ctx, "Year summary failed", err, log.ComponentHTTP, log.OpRead, fields)
		BadGatewayError("Summary unavailable").Write(w)
		return
	}

	rows, total := monthRows(summary)
	var table bytes.Buffer
	err = s.templates.ExecuteTemplate(&table, "summary-table", summaryTable{
		ID:     summaryTableID,
		Year:   year,
		Shared: summary.Shared(),
		Rows:   rows,
		Total:  total,
	})
	if err != nil {
		events(r).LogError(ctx, "Summary table failed", err, log.ComponentTemplate, log.OpRender, nil)
		InternalServerError("Summary unavailable").Write(w)
		return
	}

	page := summaryPage{
		Year:  year,
		User:  summary.User,
		Prev:  year - 1,
		Next:  year + 1,
		View:  newViewToken(),
		Table: template.HTML(table.String()),
	}
	graph, ok, err := s.histogram(ctx, table.Bytes(), summaryTableID, "svg")
	if err != nil {
		events(r).LogError(ctx, "Histogram failed", err, log.ComponentChart, log.OpRender, nil)
	} else if ok {
		page.Graph = template.HTML(graph)
		page.HasGraph = true
	}

	s.render(w, r, "summary.html", page)
}

// handleGraph scrapes the posted page and answers with its histogram, or
// 204 when there are too few months.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	params, err := ParseGraphParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	body, err := ReadPageBody(r)
	if errors.Is(err, errPageTooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, "Page too large").Write(w)
		return
	}
	if err != nil {
		BadRequestError("Unreadable page").Write(w)
		return
	}

	img, ok, err := s.histogram(r.Context(), body, params.Scope, params.Format)
	if err != nil {
		events(r).LogError(r.Context(), "Histogram failed", err, log.ComponentChart, log.OpRender, nil)
		InternalServerError("Histogram unavailable").Write(w)
		return
	}
	if !ok {
		NoContent().Write(w)
		return
	}

	NewResponse().
		Header("Cache-Control", "no-store").
		Body(chart.ContentTypes[params.Format], img).
		Write(w)
}
