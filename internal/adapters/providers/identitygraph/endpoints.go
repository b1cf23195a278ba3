package identitygraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	perr "quorum/internal/platform/errors"
)

// SearchByWebsite finds people employed at the company behind the given
// website domain. Results are capped at Options.MaxHits
func (c *Client) SearchByWebsite(ctx context.Context, website string) ([]PersonHit, error) {
	q := url.Values{"website": {website}}
	return c.search(ctx, q)
}

// SearchByNetworkID finds people by a company's professional network anchor,
// e.g. a company slug or profile URL
func (c *Client) SearchByNetworkID(ctx context.Context, networkID string) ([]PersonHit, error) {
	q := url.Values{"network_id": {networkID}}
	return c.search(ctx, q)
}

// SearchByName finds people by free text company name. This is the weakest
// search and sits last in the sourcing order for a reason: names collide
func (c *Client) SearchByName(ctx context.Context, company string) ([]PersonHit, error) {
	q := url.Values{"company": {company}}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q url.Values) ([]PersonHit, error) {
	q.Set("limit", strconv.Itoa(c.opts.MaxHits))
	resp, err := c.do(ctx, http.MethodGet, "/v1/people/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "identitygraph decode search response")
	}
	if len(out.Hits) > c.opts.MaxHits {
		out.Hits = out.Hits[:c.opts.MaxHits]
	}
	return out.Hits, nil
}

// CollectOrganization fetches provider org metadata for a company id.
// The discovery service uses this to confirm the provider's notion of the
// company matches the target before trusting hits sourced by name
func (c *Client) CollectOrganization(ctx context.Context, id string) (*Organization, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/orgs/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	var org Organization
	if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "identitygraph decode organization")
	}
	return &org, nil
}
