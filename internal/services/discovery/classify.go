package discovery

import (
	"quorum/internal/core/roles"
	"quorum/internal/services/discovery/domain"
)

// classify applies the classifier to every surviving candidate. Pure and
// deterministic: same titles in, same roles out
func classify(cls *roles.Classifier, validated []domain.ValidatedCandidate) []domain.ClassifiedCandidate {
	out := make([]domain.ClassifiedCandidate, 0, len(validated))
	for _, v := range validated {
		cl := cls.Classify(v.Title, v.Department, v.AdvisoryDM)
		out = append(out, domain.ClassifiedCandidate{
			ValidatedCandidate: v,
			Role:               cl.Role,
			RoleConfidence:     cl.Confidence,
			RoleReasoning:      cl.Reasoning,
		})
	}
	return out
}
