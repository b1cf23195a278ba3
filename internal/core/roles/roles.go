// Package roles implements deterministic buying-committee role classification
// over candidate title and department text
package roles

// Role is a person's function within a buying committee
type Role string

// Supported roles
const (
	RoleDecisionMaker Role = "decision_maker"
	RoleChampion      Role = "champion"
	RoleStakeholder   Role = "stakeholder"
	RoleBlocker       Role = "blocker"
	RoleIntroducer    Role = "introducer"
)

// precedence orders roles for tie-breaking when a title matches several tiers.
// Compliance/legal/security concerns outrank everything: failing to flag a
// blocker is costlier than under-counting a decision maker
var precedence = []Role{RoleBlocker, RoleDecisionMaker, RoleChampion, RoleIntroducer, RoleStakeholder}

// InfluenceTier maps a role to the persisted influence band
func (r Role) InfluenceTier() string {
	switch r {
	case RoleDecisionMaker:
		return "executive"
	case RoleChampion, RoleBlocker:
		return "high"
	case RoleStakeholder:
		return "medium"
	case RoleIntroducer:
		return "low"
	default:
		return "medium"
	}
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleDecisionMaker, RoleChampion, RoleStakeholder, RoleBlocker, RoleIntroducer:
		return true
	}
	return false
}

// Classification is the outcome of classifying one candidate
type Classification struct {
	Role       Role
	Confidence float64 // [0,1]
	Reasoning  string
}
