// Package domain holds the buyer-group persistence model and repo contract
package domain

import (
	"time"

	"quorum/internal/core/roles"
)

// Company is a portfolio company row as persistence sees it
type Company struct {
	ID          string
	WorkspaceID string
	Name        string
	Domain      string
	NetworkURL  string
	Industry    string
	SizeBand    string
}

// Person is a people row owned by the data store. Discovery proposes
// creates and updates through the repo's upsert contract only
type Person struct {
	ID          string
	WorkspaceID string
	CompanyID   string
	FullName    string
	Title       string
	Department  string
	NetworkURL  string

	Email           string
	EmailStatus     string
	EmailConfidence int

	Role           roles.Role
	RoleConfidence float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BuyerGroup is the aggregate. At most one non-deleted row exists per
// (workspace, company) pair
type BuyerGroup struct {
	ID           string
	WorkspaceID  string
	CompanyID    string
	Status       string
	Priority     string
	Methodology  string
	Distribution map[roles.Role]int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BuyerGroupMember joins a person to a group. Upserted by
// (buyer_group_id, person_id), never duplicated
type BuyerGroupMember struct {
	GroupID        string
	PersonID       string
	Role           roles.Role
	InfluenceTier  string
	IsPrimary      bool
	RoleConfidence float64
}

// GroupView is a read model for the API: the aggregate plus its members
type GroupView struct {
	Group   BuyerGroup
	Members []Person
}

// AuditMember is a member row joined with its group and company context,
// used by the standalone re-validation pass
type AuditMember struct {
	Person
	GroupID       string
	CompanyDomain string
}

// UpsertResult summarizes one idempotent group write
type UpsertResult struct {
	GroupID        string
	GroupCreated   bool
	MembersWritten int
	MembersSkipped int
	PeopleCreated  int
	PeopleMatched  int
}
