package commands

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"purse/internal/chart"
	"purse/internal/dom"
	"purse/internal/scrape"
)

type histogramOptions struct {
	in        string
	out       string
	format    string
	scope     string
	threshold int
	logLevel  string
}

// NewHistogramCmd creates the histogram command.
func NewHistogramCmd() *cobra.Command {
	opts := histogramOptions{}
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Draw the histogram of a saved summary page",
		Long: "Scrapes the month, amount and average cells of an HTML page and draws them as a grouped bar chart. " +
			"Nothing is written when the page has fewer months than the threshold.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.logLevel)
			page, err := readInput(opts.in)
			if err != nil {
				return fmt.Errorf("read page: %w", err)
			}
			format := opts.format
			if format == "" {
				format = formatFromPath(opts.out)
			}
			img, records, err := renderHistogram(page, format, opts.scope, opts.threshold)
			if err != nil {
				return err
			}
			if img == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "only %d months found (need %d), nothing drawn\n", records, opts.threshold)
				return nil
			}
			if err := writeOutput(opts.out, img); err != nil {
				return fmt.Errorf("write %s: %w", opts.out, err)
			}
			logger.Info("Histogram written", "out", opts.out, "format", format, "records", records)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "-", "HTML page to scrape (- for stdin)")
	cmd.Flags().StringVar(&opts.out, "out", "-", "output file (- for stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "svg or png (default: from the output extension, else png)")
	cmd.Flags().StringVar(&opts.scope, "scope", "", "id of the element to scrape within")
	cmd.Flags().IntVar(&opts.threshold, "threshold", chart.DefaultConfig().Threshold, "minimum number of months to draw")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	return cmd
}

// renderHistogram scrapes page and draws it in format. The image is nil when
// there are fewer months than threshold.
func renderHistogram(page []byte, format, scope string, threshold int) ([]byte, int, error) {
	provider, ok := chart.Formats[format]
	if !ok {
		return nil, 0, fmt.Errorf("unknown format %q (want svg or png)", format)
	}

	doc, err := dom.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, 0, fmt.Errorf("parse page: %w", err)
	}
	opts := scrape.DefaultOptions()
	opts.Scope = scope
	ds := scrape.Scrape(doc, opts)

	cfg := chart.DefaultConfig()
	cfg.Threshold = threshold
	layout, ok := chart.Build(cfg, ds.Records)
	if !ok {
		return nil, len(ds.Records), nil
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, layout, provider); err != nil {
		return nil, len(ds.Records), err
	}
	return buf.Bytes(), len(ds.Records), nil
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return "svg"
	}
	return "png"
}
