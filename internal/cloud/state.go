package cloud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"purse/internal/core"
	"purse/internal/log"
)

// Source fetches tag records.
type Source interface {
	ReadTags(ctx context.Context, q core.TagQuery) ([]core.TagRecord, error)
}

type snapshot struct {
	records []core.TagRecord
	cloud   Cloud
	visible bool
}

// State is the tag cloud of one year for the lifetime of a page view. It
// keeps the fetched datasets and their layouts so that switching back to a
// sort mode never fetches again.
type State struct {
	cfg    Config
	source Source
	year   int
	rng    Rand
	logger *log.Logger
	events *log.StructuredLogger

	mu     sync.Mutex
	count  *snapshot
	amount *snapshot
	mode   core.Ordering

	group singleflight.Group
}

// NewState creates the cloud state of a year.
func NewState(cfg Config, source Source, year int, rng Rand, logger *log.Logger) *State {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentCloud)
	return &State{
		cfg:    cfg,
		source: source,
		year:   year,
		rng:    rng,
		logger: logger,
		events: log.NewStructuredLogger(logger),
		mode:   core.OrderByCount,
	}
}

// Year returns the year the state covers.
func (s *State) Year() int { return s.year }

// Mode returns the current sort mode.
func (s *State) Mode() core.Ordering {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Load fetches the count-ordered tags once and lays them out. Later calls
// return the cached layout.
func (s *State) Load(ctx context.Context) (Cloud, bool, error) {
	snap, err := s.snapshot(ctx, core.OrderByCount)
	if err != nil {
		return Cloud{}, false, err
	}
	return snap.cloud, snap.visible, nil
}

// SortByCount switches back to the count layout. It only fetches when the
// count dataset was never loaded.
func (s *State) SortByCount(ctx context.Context) (Cloud, bool, error) {
	snap, err := s.snapshot(ctx, core.OrderByCount)
	if err != nil {
		return Cloud{}, false, err
	}
	s.setMode(core.OrderByCount)
	return snap.cloud, snap.visible, nil
}

// SortByAmount switches to the amount layout. The amount-ordered tags are
// fetched the first time only; concurrent first calls share one fetch. A
// failed fetch is not remembered, so the next call tries again.
func (s *State) SortByAmount(ctx context.Context) (Cloud, bool, error) {
	snap, err := s.snapshot(ctx, core.OrderByAmount)
	if err != nil {
		return Cloud{}, false, err
	}
	s.setMode(core.OrderByAmount)
	return snap.cloud, snap.visible, nil
}

// Dataset returns the cached records of an ordering, nil if never fetched.
func (s *State) Dataset(ordering core.Ordering) []core.TagRecord {
	if snap := s.cached(ordering); snap != nil {
		return snap.records
	}
	return nil
}

func (s *State) setMode(m core.Ordering) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

func (s *State) cached(ordering core.Ordering) *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ordering == core.OrderByAmount {
		return s.amount
	}
	return s.count
}

func (s *State) snapshot(ctx context.Context, ordering core.Ordering) (*snapshot, error) {
	if snap := s.cached(ordering); snap != nil {
		return snap, nil
	}

	v, err, _ := s.group.Do(string(ordering), func() (any, error) {
		if snap := s.cached(ordering); snap != nil {
			return snap, nil
		}
		// The fetch is shared by every waiting caller, so it must not end
		// with the first caller's request.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout())
		defer cancel()
		snap, err := s.fetch(fctx, ordering)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if ordering == core.OrderByAmount {
			s.amount = snap
		} else {
			s.count = snap
		}
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		s.events.LogError(ctx, "Tag cloud fetch failed", err, log.ComponentCloud, log.OpFetch,
			log.NewFields().WithTagQuery(s.cfg.Limit, string(ordering), s.year))
		return nil, err
	}
	return v.(*snapshot), nil
}

func (s *State) fetchTimeout() time.Duration {
	if s.cfg.FetchTimeout > 0 {
		return s.cfg.FetchTimeout
	}
	return DefaultFetchTimeout
}

func (s *State) fetch(ctx context.Context, ordering core.Ordering) (*snapshot, error) {
	q := core.TagQuery{Limit: s.cfg.Limit, Ordering: ordering, Year: s.year}
	records, err := s.source.ReadTags(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s tags for %d: %w", ordering, s.year, err)
	}
	s.events.LogTagsFetched(ctx, q.Limit, string(q.Ordering), q.Year, len(records))

	sizing := SizeByCount(s.cfg.BaseSize, s.cfg.Scale)
	if ordering == core.OrderByAmount {
		sizing = SizeByAmount(s.cfg.BaseSize, s.cfg.Scale)
	}

	s.mu.Lock()
	c, visible := Build(s.cfg, records, sizing, s.rng)
	s.mu.Unlock()
	if !visible {
		s.logger.DebugContext(ctx, "Tag cloud below threshold",
			log.FieldOrdering, string(ordering), log.FieldWords, len(records))
	}
	return &snapshot{records: records, cloud: c, visible: visible}, nil
}
