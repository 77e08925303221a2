// Package remote reads tag-cloud data from an HTTP JSON endpoint.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"purse/internal/core"
	"purse/internal/log"
)

// maxBody bounds the size of a tag response.
const maxBody = 4 << 20

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tag endpoint %s returned status %d", e.URL, e.Code)
}

// Client fetches tags with GET baseURL?limit=N&ordering=O&year=Y.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger
	now    func() time.Time
}

// New validates baseURL and returns a client whose requests time out after
// timeout.
func New(baseURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse tags url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("tags url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithComponent(log.ComponentTags),
		now:    time.Now,
	}, nil
}

// URL returns the request URL of q.
func (c *Client) URL(q core.TagQuery) string {
	u := *c.base
	v := u.Query()
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("ordering", string(q.Ordering))
	v.Set("year", strconv.Itoa(q.Year))
	u.RawQuery = v.Encode()
	return u.String()
}

type wireTag struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Amount *float64 `json:"amount"`
}

// ReadTags fetches the tags matching q. A null amount reads as zero.
func (c *Client) ReadTags(ctx context.Context, q core.TagQuery) ([]core.TagRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	target := c.URL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// The tag list changes as expenditures are added.
	req.Header.Set("Cache-Control", "no-cache")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}

	var wire []wireTag
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	out := make([]core.TagRecord, 0, len(wire))
	for _, w := range wire {
		if w.Name == "" || w.Count < 0 {
			continue
		}
		rec := core.TagRecord{Name: w.Name, Count: w.Count}
		if w.Amount != nil {
			rec.Amount = *w.Amount
		}
		out = append(out, rec)
	}

	c.logger.DebugContext(ctx, "Tags fetched",
		log.FieldURL, target,
		log.FieldWords, len(out),
		log.FieldDuration, c.now().Sub(start).Milliseconds())
	return out, nil
}

// Check fetches a single tag of the current year.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.ReadTags(ctx, core.TagQuery{Limit: 1, Ordering: core.OrderByCount, Year: c.now().Year()})
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		// An empty year may be reported as not found; the endpoint is up.
		return nil
	}
	return err
}
