package discovery

import (
	"fmt"

	"quorum/internal/core/domains"
	"quorum/internal/services/discovery/domain"
)

// validate runs the domain validator over sourced candidates. It is the
// anti-collision gate: a name search for "Underline" can return people from
// underline.com and underline.cz, and only the email domain tells them apart.
// Candidates with no email pass through unvalidated since absence of evidence
// is not evidence of mismatch
func validate(target domain.CompanyTarget, candidates []domain.Candidate) ([]domain.ValidatedCandidate, []domain.Rejection) {
	out := make([]domain.ValidatedCandidate, 0, len(candidates))
	var rejections []domain.Rejection

	for _, c := range candidates {
		v := validateOne(target, c)
		if v.Outcome == domain.OutcomeRejected {
			candDomain, _ := domains.FromEmail(firstEmail(c))
			rejections = append(rejections, domain.Rejection{
				FullName:        c.FullName,
				Reason:          v.Reason,
				CandidateDomain: candDomain,
				TargetDomain:    target.Domain,
			})
			continue
		}
		out = append(out, v)
	}
	return out, rejections
}

func validateOne(target domain.CompanyTarget, c domain.Candidate) domain.ValidatedCandidate {
	email := firstEmail(c)
	if email == "" {
		return domain.ValidatedCandidate{Candidate: c, Outcome: domain.OutcomeNoEmail}
	}
	if target.Domain == "" {
		// no target domain to compare against; treated like the no-email case
		return domain.ValidatedCandidate{Candidate: c, Outcome: domain.OutcomeNoEmail}
	}

	candDomain, ok := domains.FromEmail(email)
	if !ok {
		return domain.ValidatedCandidate{Candidate: c, Outcome: domain.OutcomeNoEmail}
	}
	if !domains.Match(candDomain, target.Domain) {
		return domain.ValidatedCandidate{
			Candidate: c,
			Outcome:   domain.OutcomeRejected,
			Reason:    fmt.Sprintf("email domain mismatch: %s != %s", candDomain, target.Domain),
		}
	}
	return domain.ValidatedCandidate{Candidate: c, Outcome: domain.OutcomeMatched}
}

func firstEmail(c domain.Candidate) string {
	for _, e := range c.Emails {
		if e != "" {
			return e
		}
	}
	return ""
}
