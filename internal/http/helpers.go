package http

import (
	"strings"
	"time"

	"purse/internal/core"
)

// MonthRow is one row of the year summary table.
type MonthRow struct {
	Name    string
	Anchor  string
	Amount  string
	Average string
	Delta   string
	Count   int
}

// ResultRow is one row of the search results.
type ResultRow struct {
	Date        string
	Amount      string
	Author      string
	Description string
	Tags        []string
}

// monthRows formats a year summary for the table template.
func monthRows(summary core.YearSummary) ([]MonthRow, string) {
	rows := make([]MonthRow, 0, len(summary.Months))
	var total float64
	for _, m := range summary.Months {
		total += m.Amount
		rows = append(rows, MonthRow{
			Name:    m.Month.Month().String(),
			Anchor:  m.Month.Format("2006-01"),
			Amount:  core.FormatAmount(m.Amount),
			Average: core.FormatAmount(m.Average),
			Delta:   core.FormatAmount(m.Delta()),
			Count:   m.Count,
		})
	}
	return rows, core.FormatAmount(total)
}

// resultRows formats search results for the page template.
func resultRows(items []core.Expenditure) ([]ResultRow, string) {
	rows := make([]ResultRow, 0, len(items))
	var total float64
	for _, e := range items {
		total += e.Amount
		rows = append(rows, ResultRow{
			Date:        e.Date.Format(time.DateOnly),
			Amount:      core.FormatAmount(e.Amount),
			Author:      e.Author,
			Description: e.Description,
			Tags:        core.TagNames(e.Description),
		})
	}
	return rows, core.FormatAmount(total)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
