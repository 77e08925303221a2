package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"purse/internal/cloud"
	"purse/internal/core"
	"purse/internal/dom"
	"purse/internal/ledger/memory"
	"purse/internal/ledger/remote"
	"purse/internal/log"
	"purse/internal/scrape"
)

type cloudOptions struct {
	tagsURL   string
	ledger    string
	page      string
	year      int
	sort      string
	out       string
	limit     int
	threshold int
	rotations string
	seed      uint64
	timeout   time.Duration
	logLevel  string
}

// NewCloudCmd creates the cloud command.
func NewCloudCmd() *cobra.Command {
	opts := cloudOptions{}
	cmd := &cobra.Command{
		Use:   "cloud",
		Short: "Draw the tag cloud of a year as SVG",
		Long: "Fetches the tags of a year from a tag endpoint (or reads them from a ledger file or a saved search page) and lays them out as a word cloud. " +
			"Nothing is written when there are fewer tags than the threshold.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.logLevel)
			src, err := openTagSource(opts, logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			svg, words, err := renderCloud(ctx, src, opts, logger)
			if err != nil {
				return err
			}
			if svg == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "only %d tags found (need %d), nothing drawn\n", words, opts.threshold)
				return nil
			}
			if err := writeOutput(opts.out, svg); err != nil {
				return fmt.Errorf("write %s: %w", opts.out, err)
			}
			logger.Info("Tag cloud written", "out", opts.out, log.FieldWords, words)
			return nil
		},
	}

	defaults := cloud.DefaultConfig()
	cmd.Flags().StringVar(&opts.tagsURL, "tags-url", "", "tag endpoint to fetch from")
	cmd.Flags().StringVar(&opts.ledger, "ledger", "", "expenditure file to read tags from instead of an endpoint")
	cmd.Flags().StringVar(&opts.page, "page", "", "saved search page whose tag shortcuts feed the cloud")
	cmd.Flags().IntVar(&opts.year, "year", time.Now().Year(), "year of the tags")
	cmd.Flags().StringVar(&opts.sort, "sort", "count", "count or amount")
	cmd.Flags().StringVar(&opts.out, "out", "-", "output SVG file (- for stdout)")
	cmd.Flags().IntVar(&opts.limit, "limit", defaults.Limit, "maximum number of tags")
	cmd.Flags().IntVar(&opts.threshold, "threshold", defaults.Threshold, "minimum number of tags to draw")
	cmd.Flags().StringVar(&opts.rotations, "rotations", "right-angle", "right-angle or diagonal")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "layout seed (0 picks a random one)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 7*time.Second, "fetch timeout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.MarkFlagsMutuallyExclusive("tags-url", "ledger", "page")
	return cmd
}

func openTagSource(opts cloudOptions, logger *log.Logger) (cloud.Source, error) {
	switch {
	case opts.tagsURL != "":
		client, err := remote.New(opts.tagsURL, opts.timeout, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case opts.ledger != "":
		store, err := memory.NewFromFile(opts.ledger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case opts.page != "":
		raw, err := readInput(opts.page)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", opts.page, err)
		}
		doc, err := dom.Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.page, err)
		}
		return pageTags(scrape.Tags(doc)), nil
	default:
		return nil, errors.New("one of --tags-url, --ledger or --page is required")
	}
}

// pageTags serves the tags scraped from a saved page. The page holds a
// single year, so the year of the query is ignored.
type pageTags []core.TagRecord

func (p pageTags) ReadTags(_ context.Context, q core.TagQuery) ([]core.TagRecord, error) {
	out := slices.Clone([]core.TagRecord(p))
	slices.SortStableFunc(out, func(a, b core.TagRecord) int {
		if q.Ordering == core.OrderByAmount {
			switch {
			case a.Amount > b.Amount:
				return -1
			case a.Amount < b.Amount:
				return 1
			}
			return 0
		}
		return b.Count - a.Count
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// renderCloud lays out the tags of opts.year in the requested order. The
// SVG is nil when there are fewer tags than the threshold.
func renderCloud(ctx context.Context, src cloud.Source, opts cloudOptions, logger *log.Logger) ([]byte, int, error) {
	ordering, err := core.ParseOrdering(opts.sort)
	if err != nil {
		return nil, 0, fmt.Errorf("sort %q: %w", opts.sort, err)
	}
	rotations, err := cloud.ParseRotations(opts.rotations)
	if err != nil {
		return nil, 0, err
	}

	cfg := cloud.DefaultConfig()
	cfg.Limit = opts.limit
	cfg.Threshold = opts.threshold
	cfg.Rotations = rotations
	if opts.timeout > 0 {
		cfg.FetchTimeout = opts.timeout
	}

	seed := opts.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	state := cloud.NewState(cfg, src, opts.year, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), logger)

	var (
		c       cloud.Cloud
		visible bool
	)
	if ordering == core.OrderByAmount {
		c, visible, err = state.SortByAmount(ctx)
	} else {
		c, visible, err = state.Load(ctx)
	}
	if err != nil {
		return nil, 0, err
	}
	words := len(state.Dataset(ordering))
	if !visible {
		return nil, words, nil
	}

	var buf bytes.Buffer
	if err := cloud.RenderSVG(&buf, c); err != nil {
		return nil, words, err
	}
	return buf.Bytes(), words, nil
}
