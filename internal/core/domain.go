package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	OrderByCount  Ordering = "-count"
	OrderByAmount Ordering = "-amount"
)

// MinTagLength is the length a description word must exceed to become a tag.
const MinTagLength = 2

type (
	Ordering string

	// MonthRecord is one scraped row of a year summary table.
	MonthRecord struct {
		Month   string
		Amount  float64
		Average Optional[float64]
	}

	// TagRecord is a tag with the number of expenditures it labels and their total.
	TagRecord struct {
		Name   string  `json:"name"`
		Count  int     `json:"count"`
		Amount float64 `json:"amount"`
	}

	// TagQuery parameterizes a tag-cloud fetch.
	TagQuery struct {
		Limit    int
		Ordering Ordering
		Year     int
	}

	Expenditure struct {
		Date        time.Time
		Amount      float64
		Author      string
		Description string
	}

	// YearSummary is the per-month spending of one user within a purse.
	YearSummary struct {
		Year    int
		User    string
		Months  []MonthSummary
		Authors int
	}

	// MonthSummary aggregates one month of a purse for a given user.
	MonthSummary struct {
		Month   time.Time
		Amount  float64 // spent by the user
		Average float64 // purse total divided by the number of authors
		Count   int
	}
)

var (
	ErrInvalidNumber   = errors.New("invalid number")
	ErrInvalidOrdering = errors.New("invalid ordering")
	ErrInvalidQuery    = errors.New("invalid tag query")
)

func (o Ordering) Validate() error {
	switch o {
	case OrderByCount, OrderByAmount:
		return nil
	default:
		return ErrInvalidOrdering
	}
}

// ParseOrdering maps the sort control names ("count", "amount") and the
// wire values ("-count", "-amount") to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.TrimSpace(s) {
	case "count", string(OrderByCount):
		return OrderByCount, nil
	case "amount", string(OrderByAmount):
		return OrderByAmount, nil
	default:
		return "", ErrInvalidOrdering
	}
}

func (q TagQuery) Validate() error {
	if q.Limit < 1 {
		return ErrInvalidQuery
	}
	if q.Year < 1 {
		return ErrInvalidQuery
	}
	return q.Ordering.Validate()
}

// HasAverages reports whether at least one record carries an average.
func HasAverages(records []MonthRecord) bool {
	for _, r := range records {
		if r.Average.IsSet() {
			return true
		}
	}
	return false
}

// Shared reports whether more than one person spends from the purse, in
// which case monthly averages are meaningful.
func (y YearSummary) Shared() bool {
	return y.Authors > 1
}

// Delta is the difference between the purse average and the user's amount.
func (m MonthSummary) Delta() float64 {
	return m.Average - m.Amount
}

// TagNames splits a description into lower-cased tag names, skipping words
// of MinTagLength characters or fewer.
func TagNames(desc string) []string {
	var names []string
	for _, w := range strings.Fields(desc) {
		if utf8.RuneCountInString(w) <= MinTagLength {
			continue
		}
		names = append(names, strings.ToLower(w))
	}
	return names
}
