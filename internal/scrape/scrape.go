// Package scrape extracts month records and tag records from rendered pages.
package scrape

import (
	"strconv"
	"strings"

	"purse/internal/core"
	"purse/internal/dom"
)

// Selector matches elements by tag name and class.
type Selector struct {
	Tag   string
	Class string
}

// Options configures where the month, amount and average values live.
type Options struct {
	// Scope is the id of the element the lookup is restricted to. Empty means
	// the whole document.
	Scope   string
	Month   Selector
	Amount  Selector
	Average Selector
}

// DefaultOptions matches the markup of the year summary table.
func DefaultOptions() Options {
	return Options{
		Month:   Selector{Tag: "a", Class: "month-anchor"},
		Amount:  Selector{Tag: "td", Class: "amount"},
		Average: Selector{Tag: "td", Class: "average"},
	}
}

// Dataset is the ordered list of scraped months.
type Dataset struct {
	Records     []core.MonthRecord
	HasAverages bool
}

// Scrape reads positionally aligned month, amount and average cells.
//
// The i-th amount belongs to the i-th month. Rows whose amount is missing or
// is not a number are left out. A missing or unparsable average leaves the
// record without one.
func Scrape(doc *dom.Document, opts Options) Dataset {
	root := doc.Root()
	if opts.Scope != "" {
		root = doc.ElementByID(opts.Scope)
		if root == nil {
			return Dataset{}
		}
	}

	months := root.Find(opts.Month.Tag, opts.Month.Class)
	amounts := root.Find(opts.Amount.Tag, opts.Amount.Class)
	averages := root.Find(opts.Average.Tag, opts.Average.Class)

	var ds Dataset
	for i, month := range months {
		if i >= len(amounts) {
			break
		}
		amount, err := core.ParseNumber(amounts[i].Text())
		if err != nil {
			continue
		}
		rec := core.MonthRecord{
			Month:   strings.TrimSpace(month.Text()),
			Amount:  amount,
			Average: core.None[float64](),
		}
		if i < len(averages) {
			if avg, err := core.ParseNumber(averages[i].Text()); err == nil {
				rec.Average = core.Some(avg)
				ds.HasAverages = true
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds
}

// Tags reads tag records embedded in the page: every tag element's text is
// the name, with data-count and data-amount attributes carrying the weights.
// Elements without a usable count are skipped.
func Tags(doc *dom.Document) []core.TagRecord {
	var out []core.TagRecord
	for _, el := range doc.ElementsByClass(dom.TagClass) {
		name := strings.TrimSpace(el.Text())
		if name == "" {
			continue
		}
		raw, ok := el.Attr("data-count")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || count < 0 {
			continue
		}
		rec := core.TagRecord{Name: name, Count: count}
		if v, ok := el.Attr("data-amount"); ok {
			if amount, err := core.ParseNumber(v); err == nil {
				rec.Amount = amount
			}
		}
		out = append(out, rec)
	}
	return out
}
