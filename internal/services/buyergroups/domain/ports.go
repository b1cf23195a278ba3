package domain

import "context"

// Repo is the Postgres surface the service layer binds through repokit
type Repo interface {
	// CompaniesNeedingGroups lists companies with zero non-deleted
	// buyer-group members, the orchestrator's scan query
	CompaniesNeedingGroups(ctx context.Context, workspaceID string, limit int) ([]Company, error)

	// MajorityEmailDomain derives a best-effort domain for a company from
	// the email domains of its existing people. Empty when no people have
	// emails
	MajorityEmailDomain(ctx context.Context, companyID string) (string, error)

	// SetCompanyDomain backfills a derived domain onto a company that has
	// none. Never overwrites an existing value
	SetCompanyDomain(ctx context.Context, companyID, domain string) error

	// MatchPerson finds an existing person within the company by folded
	// full name or by network URL. Nil when no match
	MatchPerson(ctx context.Context, workspaceID, companyID, foldedName, networkURL string) (*Person, error)

	// UpsertPerson inserts or overwrites a person row by id
	UpsertPerson(ctx context.Context, p Person) error

	// UpsertGroup inserts or updates the single non-deleted group for
	// (workspace, company) and reports whether a new row was created
	UpsertGroup(ctx context.Context, g BuyerGroup) (id string, created bool, err error)

	// MergeDuplicateGroups collapses any duplicate non-deleted groups for a
	// company into the earliest-created row. Returns how many rows were
	// folded away; non-zero is an anomaly worth logging
	MergeDuplicateGroups(ctx context.Context, workspaceID, companyID string) (merged int, err error)

	// UpsertMember writes the member link by (buyer_group_id, person_id)
	UpsertMember(ctx context.Context, m BuyerGroupMember) error

	// ClearPrimary drops the primary flag from every member of a group so
	// the writer can re-assert exactly one
	ClearPrimary(ctx context.Context, groupID string) error

	// GroupByCompany reads one company's group with its members. Nil when
	// the company has none
	GroupByCompany(ctx context.Context, workspaceID, companyID string) (*GroupView, error)

	// ListRecentGroups lists the workspace's most recently updated groups
	ListRecentGroups(ctx context.Context, workspaceID string, limit int) ([]BuyerGroup, error)

	// AuditMembers returns every member person of every non-deleted group
	// in the workspace, for the standalone re-validation pass
	AuditMembers(ctx context.Context, workspaceID string) ([]AuditMember, error)

	// RemoveMember deletes a member link, used when an audit pass finds a
	// person whose email domain no longer matches the company
	RemoveMember(ctx context.Context, groupID, personID string) error
}
