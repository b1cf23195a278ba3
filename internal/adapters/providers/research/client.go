// Package research wraps the deep research provider used as the sourcing
// fallback when graph search comes back empty
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/logger"
)

const (
	baseURLDefault = "https://api.research.example.com"
	defaultTimeout = 60 * time.Second
	defaultRetries = 1
	retryBase      = 2 * time.Second
	defaultMaxHits = 15
)

// Prospect is a person surfaced by open web research. Research results carry
// no emails and lower trust than graph hits; the discovery pipeline validates
// and classifies them like any other candidate
type Prospect struct {
	FullName   string `json:"full_name"`
	Title      string `json:"title"`
	Department string `json:"department,omitempty"`
	NetworkURL string `json:"network_url,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// Query describes the company to research
type Query struct {
	CompanyName string   `json:"company_name"`
	Domain      string   `json:"domain,omitempty"`
	Titles      []string `json:"titles,omitempty"`
	MaxResults  int      `json:"max_results"`
}

type researchResponse struct {
	Prospects []Prospect `json:"prospects"`
}

// Options configures the Client
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	MaxHits    int
}

// Client is a REST client for the research provider. Research calls are slow
// and expensive, so retries are conservative
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultRetries
	}
	if o.MaxHits <= 0 {
		o.MaxHits = defaultMaxHits
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("research"),
		sleep: time.Sleep,
	}
}

// Research runs a deep research pass for the query and returns prospects
// capped at Options.MaxHits
func (c *Client) Research(ctx context.Context, q Query) ([]Prospect, error) {
	if q.MaxResults <= 0 || q.MaxResults > c.opts.MaxHits {
		q.MaxResults = c.opts.MaxHits
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "research marshal query")
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, "/v1/research", body)
		if err != nil {
			if attempt < c.opts.MaxRetries && perr.IsCode(err, perr.ErrorCodeUnavailable) {
				c.sleep(retryBase << uint(attempt))
				continue
			}
			return nil, err
		}

		var out researchResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "research decode response")
		}
		if len(out.Prospects) > c.opts.MaxHits {
			out.Prospects = out.Prospects[:c.opts.MaxHits]
		}
		return out.Prospects, nil
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "research new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "research do failed")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "research rate limited")
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "research transient server error")
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnknown, "research unexpected status %d body %s", resp.StatusCode, string(b))
	}
}
