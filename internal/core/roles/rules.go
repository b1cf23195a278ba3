package roles

import (
	"quorum/internal/core/icp"
	"quorum/internal/core/textnorm"
)

// RuleSet is the compiled, folded rule input for a Classifier.
// Built once per run from the workspace ICP profile; read-only afterwards
type RuleSet struct {
	// ExcludedTitles folds the profile's excluded-title list
	ExcludedTitles []string

	// Priorities maps each role to the profile's folded title list for it
	Priorities map[Role][]string

	// ExcludedDepartments folds the profile's excluded-department list
	ExcludedDepartments []string
}

// builtin tier patterns, folded substrings matched against title text.
// Order within a tier is significant only for reasoning output; tier selection
// uses the package precedence order
var (
	// blockerPatterns target legal/procurement/security/compliance gatekeepers
	// and non-executive finance controls. The CFO deliberately does not match:
	// a Chief Financial Officer ranks as an executive decision maker
	blockerPatterns = []string{
		"legal", "counsel", "compliance", "procurement", "purchasing",
		"security", "privacy", "risk", "audit", "controller", "treasurer",
		"finance manager", "accounts payable",
	}

	decisionMakerPatterns = []string{
		"ceo", "cto", "coo", "cio", "cmo", "cro", "cpo",
		"chief executive", "chief technology", "chief operating",
		"chief financial", "chief information", "chief marketing",
		"chief revenue", "chief product",
		"president", "founder", "co-founder", "owner",
		"vp", "vice president", "svp", "evp",
		"managing director", "general manager", "partner",
	}

	championPatterns = []string{
		"director", "head of", "senior lead", "principal", "team lead",
		"staff engineer", "senior manager", "group manager",
	}

	introducerPatterns = []string{
		"assistant", "chief of staff", "office manager", "coordinator",
		"receptionist", "administrative",
	}
)

// Compile folds an ICP profile into a RuleSet
func Compile(p icp.Profile) RuleSet {
	rs := RuleSet{
		ExcludedTitles:      foldAll(p.Titles.ExcludedTitles),
		ExcludedDepartments: foldAll(p.Departments.ExcludedDepartments),
		Priorities:          map[Role][]string{},
	}
	for name, titles := range p.RolePriorities {
		r := Role(name)
		if !r.Valid() {
			continue
		}
		rs.Priorities[r] = foldAll(titles)
	}
	return rs
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := textnorm.Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
