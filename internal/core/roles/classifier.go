package roles

import (
	"fmt"
	"strings"

	"quorum/internal/core/textnorm"
)

// confidence bases per match source
const (
	confPriorityList = 0.90 // title found in the profile's role-priority list
	confBlocker      = 0.85
	confDecision     = 0.85
	confChampion     = 0.75
	confIntroducer   = 0.70
	confDefault      = 0.40

	// advisoryBonus is the fixed bump contributed by the provider's
	// "is decision maker" hint. One signal among several, never an authority
	advisoryBonus = 0.10
)

// Classifier assigns buying-committee roles from title/department text.
// Classification is deterministic for identical input and rule set
type Classifier struct {
	rules RuleSet
}

// New builds a Classifier over a compiled RuleSet
func New(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Classify assigns a role with confidence and reasoning.
// advisoryDM is the provider's advisory decision-maker hint; it adds a fixed
// confidence bonus but never overrides an excluded-title rejection
func (c *Classifier) Classify(title, department string, advisoryDM bool) Classification {
	ft := textnorm.Fold(title)
	fd := textnorm.Fold(department)

	// exclusions first: excluded candidates are deprioritized, never promoted
	if pat, ok := matchAny(ft, c.rules.ExcludedTitles); ok {
		return Classification{
			Role:       RoleStakeholder,
			Confidence: 0,
			Reasoning:  fmt.Sprintf("excluded title %q", pat),
		}
	}
	if pat, ok := matchAny(fd, c.rules.ExcludedDepartments); ok {
		return Classification{
			Role:       RoleStakeholder,
			Confidence: 0,
			Reasoning:  fmt.Sprintf("excluded department %q", pat),
		}
	}

	out := c.scoreTiers(ft, fd)

	if advisoryDM {
		out.Confidence = min(1, out.Confidence+advisoryBonus)
		out.Reasoning += "; provider advisory decision-maker hint"
	}
	return out
}

// scoreTiers walks tiers in precedence order and returns the first match.
// Precedence: Blocker > DecisionMaker > Champion > Introducer > Stakeholder
func (c *Classifier) scoreTiers(foldedTitle, foldedDept string) Classification {
	for _, role := range precedence {
		// workspace role-priority lists outrank builtin patterns for the tier
		if pat, ok := matchAny(foldedTitle, c.rules.Priorities[role]); ok {
			return Classification{
				Role:       role,
				Confidence: confPriorityList,
				Reasoning:  fmt.Sprintf("title matched workspace priority %q for %s", pat, role),
			}
		}

		var pats []string
		var conf float64
		switch role {
		case RoleBlocker:
			pats, conf = blockerPatterns, confBlocker
		case RoleDecisionMaker:
			pats, conf = decisionMakerPatterns, confDecision
		case RoleChampion:
			pats, conf = championPatterns, confChampion
		case RoleIntroducer:
			pats, conf = introducerPatterns, confIntroducer
		default:
			continue
		}
		if pat, ok := matchAny(foldedTitle, pats); ok {
			return Classification{
				Role:       role,
				Confidence: conf,
				Reasoning:  fmt.Sprintf("title matched %s pattern %q", role, pat),
			}
		}

		// department text is a weaker signal for gatekeeper tiers
		if role == RoleBlocker {
			if pat, ok := matchAny(foldedDept, []string{"legal", "procurement", "security", "compliance"}); ok {
				return Classification{
					Role:       RoleBlocker,
					Confidence: 0.70,
					Reasoning:  fmt.Sprintf("department matched blocker pattern %q", pat),
				}
			}
		}
	}

	return Classification{
		Role:       RoleStakeholder,
		Confidence: confDefault,
		Reasoning:  "no tier pattern matched",
	}
}

// matchAny reports the first pattern contained in s on word boundaries
func matchAny(s string, patterns []string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if containsWord(s, p) {
			return p, true
		}
	}
	return "", false
}

// containsWord reports whether pat occurs in s bounded by non-alphanumerics.
// Keeps short patterns like "vp" or "ceo" from firing inside longer words
func containsWord(s, pat string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], pat)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(pat)
		leftOK := start == 0 || !isAlnum(s[start-1])
		rightOK := end == len(s) || !isAlnum(s[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
		if from >= len(s) {
			return false
		}
	}
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
