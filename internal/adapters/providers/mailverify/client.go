// Package mailverify wraps the mailbox verification provider
package mailverify

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
	baseURLDefault = "https://api.mailverify.example.com"
	defaultTimeout = 15 * time.Second
	defaultRetries = 2
	retryBase      = 750 * time.Millisecond
)

// Status values returned by the provider for a verified mailbox
const (
	StatusValid     = "valid"
	StatusInvalid   = "invalid"
	StatusAcceptAll = "accept_all"
	StatusUnknown   = "unknown"
)

// Verification is the provider's judgement of a single mailbox
type Verification struct {
	Email      string `json:"email"`
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
	Disposable bool   `json:"disposable"`
}

// Deliverable reports whether the verification is good enough to trust
// at the given confidence floor
func (v Verification) Deliverable(minConfidence int) bool {
	return v.Status == StatusValid && v.Confidence >= minConfidence
}

// Options configures the Client
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a small REST client for mailbox verification
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
		log:   *logger.Named("mailverify"),
		sleep: time.Sleep,
	}
}

// Verify checks a single mailbox. The name and domain let the provider
// cross-check the mailbox owner. SMTP probes on the provider side are slow,
// so callers should verify one address at a time and stop at the first hit
func (c *Client) Verify(ctx context.Context, email, fullName, domain string) (*Verification, error) {
	q := url.Values{"email": {email}}
	if fullName != "" {
		q.Set("name", fullName)
	}
	if domain != "" {
		q.Set("domain", domain)
	}
	path := "/v1/verify?" + q.Encode()

	for attempt := 0; ; attempt++ {
		resp, err := c.get(ctx, path)
		if err != nil {
			if attempt < c.opts.MaxRetries && perr.IsCode(err, perr.ErrorCodeUnavailable) {
				c.sleep(retryBase << uint(attempt))
				continue
			}
			return nil, err
		}

		var v Verification
		err = json.NewDecoder(resp.Body).Decode(&v)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "mailverify decode response")
		}
		if v.Email == "" {
			v.Email = email
		}
		return &v, nil
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "mailverify new request failed")
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "mailverify do failed")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "mailverify rate limited")
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "mailverify transient server error")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		return nil, perr.Newf(perr.ErrorCodeUnknown, "mailverify unexpected status %d body %s", resp.StatusCode, string(body))
	}
}
