// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every handler reads its parameters through one of these functions so that
// defaults and bounds are applied in a single place.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"purse/internal/chart"
	"purse/internal/core"
)

// maxPageBytes bounds the HTML page accepted by the graph endpoint.
const maxPageBytes = 2 << 20

var errPageTooLarge = errors.New("page too large")

// TagParams holds the query of the tag endpoint.
type TagParams struct {
	Query core.TagQuery
}

// ParseTagParams reads limit, ordering and year. Missing values default to
// defaultLimit, count ordering and the current year; present but invalid
// values are an error.
func ParseTagParams(query url.Values, defaultLimit int) (TagParams, error) {
	q := core.TagQuery{Limit: defaultLimit, Ordering: core.OrderByCount, Year: time.Now().Year()}

	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return TagParams{}, fmt.Errorf("limit %q: %w", v, core.ErrInvalidQuery)
		}
		q.Limit = n
	}
	if v := strings.TrimSpace(query.Get("ordering")); v != "" {
		o, err := core.ParseOrdering(v)
		if err != nil {
			return TagParams{}, fmt.Errorf("ordering %q: %w", v, err)
		}
		q.Ordering = o
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return TagParams{}, fmt.Errorf("year %q: %w", v, core.ErrInvalidQuery)
		}
		q.Year = y
	}
	if err := q.Validate(); err != nil {
		return TagParams{}, err
	}
	return TagParams{Query: q}, nil
}

// CloudParams holds the query of the tag cloud partial.
type CloudParams struct {
	Year int
	// Sort is empty when the request only loads the cloud.
	Sort core.Ordering
	// View identifies the page view the cloud belongs to. Empty means the
	// request is a page view of its own.
	View string
}

// ParseCloudParams reads year, sort and view. The year defaults to the
// current one.
func ParseCloudParams(query url.Values) (CloudParams, error) {
	p := CloudParams{Year: parseYear(query.Get("year"))}
	if v := strings.TrimSpace(query.Get("view")); v != "" {
		if !validViewToken(v) {
			return CloudParams{}, fmt.Errorf("view %q: %w", v, core.ErrInvalidQuery)
		}
		p.View = v
	}
	if v := strings.TrimSpace(query.Get("sort")); v != "" {
		o, err := core.ParseOrdering(v)
		if err != nil {
			return CloudParams{}, fmt.Errorf("sort %q: %w", v, err)
		}
		p.Sort = o
	}
	return p, nil
}

// validViewToken accepts short tokens made of letters, digits, '-' and '_'.
func validViewToken(v string) bool {
	if len(v) > 64 {
		return false
	}
	for _, c := range v {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// SearchParams holds the query of the search page.
type SearchParams struct {
	Filter string
	Tag    string
	Toggle string
}

// ParseSearchParams reads the filter, the clicked tag and the menu to toggle.
func ParseSearchParams(query url.Values) SearchParams {
	return SearchParams{
		Filter: sanitizeInput(query.Get("filter")),
		Tag:    sanitizeInput(query.Get("tag")),
		Toggle: sanitizeInput(query.Get("toggle")),
	}
}

// GraphParams holds the options of the graph endpoint.
type GraphParams struct {
	Format string
	Scope  string
}

// ParseGraphParams reads the output format (svg by default) and the id of
// the element scraping is restricted to.
func ParseGraphParams(query url.Values) (GraphParams, error) {
	p := GraphParams{
		Format: strings.ToLower(strings.TrimSpace(query.Get("format"))),
		Scope:  sanitizeInput(query.Get("scope")),
	}
	if p.Format == "" {
		p.Format = "svg"
	}
	if _, ok := chart.Formats[p.Format]; !ok {
		return GraphParams{}, fmt.Errorf("unknown format %q", p.Format)
	}
	return p, nil
}

// ReadPageBody reads at most maxPageBytes of the request body.
func ReadPageBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxPageBytes {
		return nil, errPageTooLarge
	}
	return body, nil
}

// parseYear returns the year in v, or the current year when v is not a
// positive number.
func parseYear(v string) int {
	if y, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && y > 0 {
		return y
	}
	return time.Now().Year()
}
