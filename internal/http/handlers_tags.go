package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"purse/internal/cloud"
	"purse/internal/core"
	"purse/internal/log"
)

// handleTagCloud renders the tag cloud partial of a year for one page view.
// Without a sort parameter the count layout is loaded; with one the cloud
// switches mode.
// When the cloud cannot be shown the container is told to hide with a 204.
func (s *Server) handleTagCloud(w http.ResponseWriter, r *http.Request) {
	params, err := ParseCloudParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.FetchTimeout)
	defer cancel()

	state := s.cloudState(params.Year, params.View)
	mode := core.OrderByCount
	var (
		c       cloud.Cloud
		visible bool
	)
	switch params.Sort {
	case core.OrderByAmount:
		c, visible, err = state.SortByAmount(ctx)
		mode = core.OrderByAmount
	case core.OrderByCount:
		c, visible, err = state.SortByCount(ctx)
	default:
		c, visible, err = state.Load(ctx)
	}
	if err != nil || !visible {
		// Fetch failures are logged by the cloud state.
		s.metrics.cloudsHidden.Add(1)
		NoContent().TriggerCloudHidden(params.Year).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := cloud.RenderSVG(&buf, c); err != nil {
		events(r).LogError(ctx, "Tag cloud render failed", err, log.ComponentCloud, log.OpRender,
			log.NewFields().WithTagQuery(s.cloudCfg.Limit, string(mode), params.Year))
		s.metrics.cloudsHidden.Add(1)
		NoContent().TriggerCloudHidden(params.Year).Write(w)
		return
	}
	s.metrics.cloudsRendered.Add(1)
	if params.Sort != "" {
		log.FromContext(ctx).WithComponent(log.ComponentCloud).DebugContext(ctx, "Tag cloud sorted",
			log.FieldOperation, log.OpSort,
			log.FieldOrdering, string(mode),
			log.FieldYear, params.Year,
			log.FieldWords, len(c.Words))
	}

	NewResponse().
		TriggerCloudSorted(params.Year, modeName(string(mode))).
		Header("Cache-Control", "no-store").
		BodyHTML(buf.String()).
		Write(w)
}

// handleTags serves the tags of this instance as a JSON array of
// {name, count, amount}.
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	params, err := ParseTagParams(r.URL.Query(), s.cfg.TagsLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.FetchTimeout)
	defer cancel()

	q := params.Query
	records, err := s.sources.Index.ReadTags(ctx, q)
	if err != nil {
		events(r).LogError(ctx, "Tag read failed", err, log.ComponentTags, log.OpRead,
			log.NewFields().WithTagQuery(q.Limit, string(q.Ordering), q.Year))
		writeJSONError(w, http.StatusBadGateway, "tags unavailable")
		return
	}
	if records == nil {
		records = []core.TagRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
