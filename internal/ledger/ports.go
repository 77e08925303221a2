// Package ledger defines where tag, summary and search data come from.
package ledger

import (
	"context"

	"purse/internal/core"
)

// Ports for outbound adapters.
type (
	// TagReader returns the tags of a year, ordered and limited by the query.
	TagReader interface {
		ReadTags(ctx context.Context, q core.TagQuery) ([]core.TagRecord, error)
	}

	// SummaryReader returns the monthly spending of a user in a year.
	SummaryReader interface {
		YearSummary(ctx context.Context, year int, user string) (core.YearSummary, error)
	}

	// ExpenditureSearcher returns the expenditures whose description contains
	// every word of filter.
	ExpenditureSearcher interface {
		Search(ctx context.Context, filter string) ([]core.Expenditure, error)
	}

	// HealthChecker reports whether a source can serve requests.
	HealthChecker interface {
		Check(ctx context.Context) error
	}
)

// Sources are the readers behind the web pages.
type Sources struct {
	// Tags feeds the tag cloud; Index serves the tag endpoint of this
	// instance. They differ when the cloud reads a remote endpoint.
	Tags     TagReader
	Index    TagReader
	Summary  SummaryReader
	Search   ExpenditureSearcher
	Checkers []HealthChecker
}
