// Package ingest fetches the FirstWatch public event listing and stores it
// with deduplication and lifecycle tracking (first_seen, last_seen,
// times_seen).
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Column describes one column of the upstream listing.
type Column struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}

// Listing is the raw upstream response: column definitions plus untyped rows.
type Listing struct {
	Title   string                   `json:"title"`
	Columns []Column                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// Client talks to the FirstWatch public event listing endpoint.
type Client struct {
	baseURL  string
	pubToken string
	http     *http.Client
}

// NewClient builds a Client for the given endpoint and public token.
func NewClient(baseURL, pubToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		pubToken: pubToken,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves the current event listing, retrying transient failures
// with exponential backoff (upstream flaps during dispatch surges).
func (c *Client) Fetch(ctx context.Context) (*Listing, error) {
	var listing *Listing

	op := func() error {
		l, err := c.fetchOnce(ctx)
		if err != nil {
			return err
		}
		listing = l
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("fetch event listing: %w", err)
	}
	return listing, nil
}

func (c *Client) fetchOnce(ctx context.Context) (*Listing, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse base url: %w", err))
	}
	q := u.Query()
	q.Set("pubToken", c.pubToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("upstream returned %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var listing Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode event listing: %w", err)
	}
	return &listing, nil
}
