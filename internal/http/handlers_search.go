package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"purse/internal/core"
	"purse/internal/dom"
	"purse/internal/log"
)

const (
	filterInputID = "filter"
	searchNavID   = "nav-search"
	// searchTagLimit bounds the tag shortcuts listed above the results.
	searchTagLimit = 30
)

type searchPage struct {
	Filter  string
	Query   string
	Tags    []core.TagRecord
	Results []ResultRow
	Total   string
	Failed  bool
}

// handleSearch renders the expenditures matching the filter. A clicked tag
// is appended to the filter the way the tag shortcuts do it in the browser,
// the filter box gets focus and the search entry of the navigation is marked
// active.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := ParseSearchParams(r.URL.Query())
	filter := params.Filter
	if params.Tag != "" {
		filter = dom.AppendTag(filter, params.Tag)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.FetchTimeout)
	defer cancel()

	page := searchPage{Filter: params.Filter, Query: filter}

	items, err := s.sources.Search.Search(ctx, filter)
	if err != nil {
		events(r).LogError(ctx, "Search failed", err, log.ComponentHTTP, log.OpSearch, nil)
		page.Failed = true
	}
	s.metrics.searches.Add(1)
	page.Results, page.Total = resultRows(items)

	tags, err := s.sources.Index.ReadTags(ctx, core.TagQuery{
		Limit:    searchTagLimit,
		Ordering: core.OrderByCount,
		Year:     time.Now().Year(),
	})
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Tag shortcuts unavailable", log.FieldError, err)
	}
	page.Tags = tags

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "search.html", page); err != nil {
		events(r).LogError(ctx, "Search page failed", err, log.ComponentTemplate, log.OpRender, nil)
		InternalServerError("Search unavailable").Write(w)
		return
	}

	doc, err := dom.Parse(&buf)
	if err != nil {
		events(r).LogError(ctx, "Search page failed", err, log.ComponentHTTP, log.OpParse, nil)
		InternalServerError("Search unavailable").Write(w)
		return
	}
	applyTag(doc, params.Tag)
	dom.Focus(doc, filterInputID)
	dom.Activate(doc, filterInputID, searchNavID)
	if params.Toggle != "" {
		dom.ToggleMenu(doc, params.Toggle)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := doc.Render(w); err != nil {
		events(r).LogError(ctx, "Search page failed", err, log.ComponentHTTP, log.OpRender, nil)
	}
}

// applyTag clicks the shortcut named tag so its listener appends it to the
// filter box. Tags without a shortcut on the page are appended directly.
func applyTag(doc *dom.Document, tag string) {
	if tag == "" {
		return
	}
	dispose := dom.ListenToTags(doc, filterInputID)
	defer dispose()

	for _, el := range doc.ElementsByClass(dom.TagClass) {
		if strings.TrimSpace(el.Text()) == tag {
			el.Click()
			return
		}
	}
	if input := doc.ElementByID(filterInputID); input != nil {
		input.SetValue(dom.AppendTag(input.Value(), tag))
	}
}
