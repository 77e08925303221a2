// Package memory is an in-memory, read-only expenditure store seeded from a
// text file.
package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"purse/internal/core"
)

// ErrMalformedLine is returned for seed lines that cannot be parsed.
var ErrMalformedLine = errors.New("malformed seed line")

const dateLayout = "2006-01-02"

type Store struct {
	mu    sync.RWMutex
	items []core.Expenditure
}

func New(items ...core.Expenditure) *Store {
	s := &Store{items: append([]core.Expenditure(nil), items...)}
	sort.SliceStable(s.items, func(i, j int) bool { return s.items[i].Date.Before(s.items[j].Date) })
	return s
}

// NewFromFile loads expenditures from a seed file. Each line reads
// "YYYY-MM-DD;amount;author;description"; blank lines and lines starting
// with '#' are skipped.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	items, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(items...), nil
}

// Parse reads seed lines from r.
func Parse(r io.Reader) ([]core.Expenditure, error) {
	var out []core.Expenditure
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(line string) (core.Expenditure, error) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) != 4 {
		return core.Expenditure{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedLine, len(parts))
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return core.Expenditure{}, fmt.Errorf("%w: date: %v", ErrMalformedLine, err)
	}
	amount, err := core.ParseNumber(parts[1])
	if err != nil {
		return core.Expenditure{}, fmt.Errorf("%w: amount: %v", ErrMalformedLine, err)
	}
	author := strings.TrimSpace(parts[2])
	if author == "" {
		return core.Expenditure{}, fmt.Errorf("%w: empty author", ErrMalformedLine)
	}
	return core.Expenditure{
		Date:        date,
		Amount:      amount,
		Author:      author,
		Description: strings.TrimSpace(parts[3]),
	}, nil
}

// Len returns the number of stored expenditures.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ReadTags aggregates the tags of q.Year: every description word longer
// than two characters counts once per expenditure and adds its amount.
func (s *Store) ReadTags(_ context.Context, q core.TagQuery) ([]core.TagRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*core.TagRecord)
	for _, e := range s.items {
		if e.Date.Year() != q.Year {
			continue
		}
		seen := make(map[string]bool)
		for _, name := range core.TagNames(e.Description) {
			if seen[name] {
				continue
			}
			seen[name] = true
			t, ok := byName[name]
			if !ok {
				t = &core.TagRecord{Name: name}
				byName[name] = t
			}
			t.Count++
			t.Amount += e.Amount
		}
	}

	out := make([]core.TagRecord, 0, len(byName))
	for _, t := range byName {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Ordering == core.OrderByAmount && a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// YearSummary returns, for every month of year that has expenditures, what
// user spent and the purse average: the month total split among every
// author of the purse.
func (s *Store) YearSummary(_ context.Context, year int, user string) (core.YearSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make(map[string]struct{})
	for _, e := range s.items {
		authors[e.Author] = struct{}{}
	}
	sum := core.YearSummary{Year: year, User: user, Authors: len(authors)}

	var months [12]core.MonthSummary
	var totals [12]float64
	for _, e := range s.items {
		if e.Date.Year() != year {
			continue
		}
		m := e.Date.Month() - 1
		months[m].Count++
		totals[m] += e.Amount
		if e.Author == user {
			months[m].Amount += e.Amount
		}
	}
	for i := range months {
		if months[i].Count == 0 {
			continue
		}
		months[i].Month = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		if sum.Authors > 0 {
			months[i].Average = totals[i] / float64(sum.Authors)
		}
		sum.Months = append(sum.Months, months[i])
	}
	return sum, nil
}

// Search returns the expenditures, newest first, whose description holds
// every word of filter. An empty filter matches everything.
func (s *Store) Search(_ context.Context, filter string) ([]core.Expenditure, error) {
	words := strings.Fields(strings.ToLower(filter))
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Expenditure
	for i := len(s.items) - 1; i >= 0; i-- {
		e := s.items[i]
		desc := strings.ToLower(e.Description)
		match := true
		for _, w := range words {
			if !strings.Contains(desc, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

// Check always succeeds: the store lives in memory.
func (s *Store) Check(context.Context) error { return nil }
