package domain

import "context"

// Sourcer is the identity-graph provider seen through pipeline types
type Sourcer interface {
	SearchByWebsite(ctx context.Context, website string) ([]Candidate, error)
	SearchByNetworkID(ctx context.Context, networkID string) ([]Candidate, error)
	SearchByName(ctx context.Context, name string) ([]Candidate, error)
	CollectOrganization(ctx context.Context, id string) (*Organization, error)
}

// Researcher is the fallback sourcing provider used when graph search
// comes back empty on every strategy
type Researcher interface {
	Research(ctx context.Context, target CompanyTarget) ([]Candidate, error)
}

// Verification is a mailbox verification judgement in pipeline terms
type Verification struct {
	Valid             bool
	ConfidencePercent int
}

// Verifier checks deliverability of an existing address. The person's name
// and the target domain travel along so providers can cross-check the
// mailbox owner
type Verifier interface {
	Verify(ctx context.Context, email, fullName, domain string) (Verification, error)
}

// Guess is a discovered address; Found is false when the provider had nothing
type Guess struct {
	Email             string
	Found             bool
	Deliverable       bool
	ConfidencePercent int
}

// Discoverer proposes an address for a person at a domain
type Discoverer interface {
	Discover(ctx context.Context, firstName, lastName, domain string) (Guess, error)
}

// RejectionSink receives validator rejections for audit. Implementations
// must be non-fatal: a sink failure never stops the pipeline
type RejectionSink interface {
	WriteRejections(ctx context.Context, workspaceID, companyID string, rejections []Rejection)
}
