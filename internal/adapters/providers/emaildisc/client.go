// Package emaildisc wraps the email discovery provider used when a person
// has no known address to verify
package emaildisc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/logger"
)

const (
	baseURLDefault = "https://api.emaildisc.example.com"
	defaultTimeout = 15 * time.Second
	defaultRetries = 2
	retryBase      = 750 * time.Millisecond
)

// Provider outcomes for a discovery attempt
const (
	StatusFound    = "found"
	StatusGuessed  = "guessed"
	StatusNotFound = "not_found"
)

// Discovery is the provider's best address for a person at a domain
type Discovery struct {
	Email      string `json:"email"`
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
	Pattern    string `json:"pattern,omitempty"`
}

// Options configures the Client
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a small REST client for email discovery
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
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("emaildisc"),
		sleep: time.Sleep,
	}
}

// Discover asks the provider for an address for a person at domain.
// A StatusNotFound result is returned as a Discovery, not an error; only
// transport and provider failures error out
func (c *Client) Discover(ctx context.Context, firstName, lastName, domain string) (*Discovery, error) {
	q := url.Values{"first_name": {firstName}, "last_name": {lastName}, "domain": {domain}}
	path := "/v1/discover?" + q.Encode()

	for attempt := 0; ; attempt++ {
		resp, err := c.get(ctx, path)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeNotFound) {
				return &Discovery{Status: StatusNotFound}, nil
			}
			if attempt < c.opts.MaxRetries && perr.IsCode(err, perr.ErrorCodeUnavailable) {
				c.sleep(retryBase << uint(attempt))
				continue
			}
			return nil, err
		}

		var d Discovery
		err = json.NewDecoder(resp.Body).Decode(&d)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "emaildisc decode response")
		}
		if d.Status == "" {
			d.Status = StatusNotFound
		}
		return &d, nil
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "emaildisc new request failed")
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "emaildisc do failed")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		// provider uses 404 for "no address found"; normalize to a result
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.NotFoundf("emaildisc no address")
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "emaildisc rate limited")
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "emaildisc transient server error")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnknown, "emaildisc unexpected status %d body %s", resp.StatusCode, string(body))
	}
}
