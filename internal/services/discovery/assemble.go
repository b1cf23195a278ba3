package discovery

import (
	"sort"

	"quorum/internal/core/icp"
	"quorum/internal/core/roles"
	"quorum/internal/services/discovery/domain"
)

// Per-role selection caps. Fixed rather than ICP-driven: the overall size
// band is workspace config, the per-role balance is product behavior
var roleCaps = map[roles.Role]int{
	roles.RoleDecisionMaker: 3,
	roles.RoleChampion:      3,
	roles.RoleBlocker:       2,
	roles.RoleIntroducer:    2,
	roles.RoleStakeholder:   4,
}

// fillOrder decides which roles claim seats first when the size band is
// tighter than the per-role caps allow
var fillOrder = []roles.Role{
	roles.RoleDecisionMaker,
	roles.RoleChampion,
	roles.RoleBlocker,
	roles.RoleIntroducer,
	roles.RoleStakeholder,
}

// resolved pairs a classified candidate with its email waterfall outcome
type resolved struct {
	domain.ClassifiedCandidate
	Email domain.EmailRecord
}

// assemble selects a bounded, role-balanced subset and builds the final
// aggregate. A group with zero decision makers is still emitted; remediation
// happens downstream, never by blocking assembly
func assemble(target domain.CompanyTarget, sizing icp.Sizing, pool []resolved) domain.Assembly {
	byRole := make(map[roles.Role][]resolved, len(fillOrder))
	for _, r := range pool {
		byRole[r.Role] = append(byRole[r.Role], r)
	}
	for role := range byRole {
		rank(byRole[role])
	}

	// the band: fill toward the ideal size under the per-role caps, never
	// past the maximum
	maxSeats := sizing.Max
	if maxSeats <= 0 {
		maxSeats = len(pool)
	}
	ideal := sizing.Ideal
	if ideal <= 0 || ideal > maxSeats {
		ideal = maxSeats
	}

	var members []domain.Member
	taken := make(map[roles.Role]int, len(fillOrder))
	for _, role := range fillOrder {
		seats := roleCaps[role]
		for _, r := range byRole[role] {
			if len(members) >= ideal || seats == 0 {
				break
			}
			members = append(members, toMember(r))
			taken[role]++
			seats--
		}
	}

	// a thin pool can leave the group under the minimum; relax the per-role
	// caps before settling for an undersized group
	if min := sizing.Min; len(members) < min {
		for _, role := range fillOrder {
			for _, r := range byRole[role][taken[role]:] {
				if len(members) >= min || len(members) >= maxSeats {
					break
				}
				members = append(members, toMember(r))
				taken[role]++
			}
		}
	}

	markPrimary(members)

	dist := make(map[roles.Role]int, len(fillOrder))
	for _, m := range members {
		dist[m.Role]++
	}

	return domain.Assembly{
		Company:      target,
		Members:      members,
		Distribution: dist,
	}
}

// rank orders candidates within a role: role confidence first, then email
// confidence, then name so equal scores stay deterministic
func rank(rs []resolved) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].RoleConfidence != rs[j].RoleConfidence {
			return rs[i].RoleConfidence > rs[j].RoleConfidence
		}
		if rs[i].Email.ConfidencePercent != rs[j].Email.ConfidencePercent {
			return rs[i].Email.ConfidencePercent > rs[j].Email.ConfidencePercent
		}
		return rs[i].FullName < rs[j].FullName
	})
}

// markPrimary flags the top-ranked decision maker. At most one member per
// group carries the flag
func markPrimary(members []domain.Member) {
	for i := range members {
		if members[i].Role == roles.RoleDecisionMaker {
			members[i].IsPrimary = true
			return
		}
	}
}

func toMember(r resolved) domain.Member {
	return domain.Member{
		FullName:       r.FullName,
		Title:          r.Title,
		Department:     r.Department,
		NetworkURL:     r.NetworkURL,
		ProviderID:     r.ProviderID,
		Role:           r.Role,
		InfluenceTier:  r.Role.InfluenceTier(),
		RoleConfidence: r.RoleConfidence,
		RoleReasoning:  r.RoleReasoning,
		Email:          r.Email,
	}
}
