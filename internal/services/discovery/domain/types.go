// Package domain holds the discovery pipeline's data model and provider ports
package domain

import (
	"quorum/internal/core/roles"
)

// CompanyTarget is the company a discovery run works on. Supplied by the
// orchestrator; the pipeline never mutates it except to fill a derived
// Domain when one was missing
type CompanyTarget struct {
	ID          string
	WorkspaceID string
	Name        string
	Domain      string
	NetworkURL  string
	Industry    string
	SizeBand    string
}

// Sourceable reports whether the target carries at least one anchor a
// sourcing strategy can use
func (t CompanyTarget) Sourceable() bool {
	return t.Domain != "" || t.NetworkURL != "" || t.Name != ""
}

// Candidate is an untrusted person record straight from a sourcing call
type Candidate struct {
	FullName   string
	Title      string
	Department string
	NetworkURL string
	Emails     []string
	ProviderID string
	CompanyID  string

	// AdvisoryDM is the provider's decision-maker hint. One signal among
	// many, never an authority on its own
	AdvisoryDM bool

	// Source names the strategy that produced the candidate
	Source string
}

// Organization is provider org metadata used to sanity-check name matches
type Organization struct {
	ID     string
	Name   string
	Domain string
	Size   int
}

// ValidationOutcome is the Domain Validator's verdict for one candidate
type ValidationOutcome string

const (
	OutcomeMatched  ValidationOutcome = "matched"
	OutcomeNoEmail  ValidationOutcome = "no-email-unvalidated"
	OutcomeRejected ValidationOutcome = "rejected"
)

// ValidatedCandidate is a Candidate annotated with a validation outcome.
// Rejected candidates never reach classification but are kept for the run log
type ValidatedCandidate struct {
	Candidate
	Outcome ValidationOutcome
	Reason  string
}

// ClassifiedCandidate adds the role verdict from the classifier
type ClassifiedCandidate struct {
	ValidatedCandidate
	Role           roles.Role
	RoleConfidence float64
	RoleReasoning  string
}

// EmailStatus is the provenance of a resolved email
type EmailStatus string

const (
	EmailVerified   EmailStatus = "verified"
	EmailDiscovered EmailStatus = "discovered"
	EmailUnresolved EmailStatus = "unresolved"
)

// EmailRecord is a candidate's resolved contact email plus provenance
type EmailRecord struct {
	Email             string
	Status            EmailStatus
	ConfidencePercent int
	Source            string
}

// Supersedes reports whether this record should replace prev when persisting.
// A verified email is never displaced by a discovered one, and within the
// same status higher confidence wins
func (r EmailRecord) Supersedes(prev EmailRecord) bool {
	rank := func(s EmailStatus) int {
		switch s {
		case EmailVerified:
			return 2
		case EmailDiscovered:
			return 1
		default:
			return 0
		}
	}
	if rank(r.Status) != rank(prev.Status) {
		return rank(r.Status) > rank(prev.Status)
	}
	return r.ConfidencePercent > prev.ConfidencePercent
}

// Member is one selected buyer-group member in an Assembly
type Member struct {
	FullName       string
	Title          string
	Department     string
	NetworkURL     string
	ProviderID     string
	Role           roles.Role
	InfluenceTier  string
	RoleConfidence float64
	RoleReasoning  string
	Email          EmailRecord
	IsPrimary      bool
}

// Rejection records why a candidate was dropped, for auditability
type Rejection struct {
	FullName        string
	Reason          string
	CandidateDomain string
	TargetDomain    string
}

// Stats summarizes one company's pipeline pass
type Stats struct {
	Sourced        int
	Rejected       int
	EmailsByStatus map[EmailStatus]int
	Rejections     []Rejection
	SourceStrategy string
}

// Assembly is the pipeline's final output for one company
type Assembly struct {
	Company      CompanyTarget
	Members      []Member
	Distribution map[roles.Role]int
	Stats        Stats
}

// TotalMembers is the assembled group size
func (a Assembly) TotalMembers() int { return len(a.Members) }
