package discovery

import (
	"context"
	"strings"

	"quorum/internal/core/domains"
	"quorum/internal/services/discovery/domain"
)

// verifyThreshold is the minimum provider confidence for an existing email
// to be accepted as verified
const verifyThreshold = 70

// emailStage is one rung of the email resolution waterfall. A stage returns
// the record it produced and whether it accepts; the driver advances on
// non-acceptance. Stage errors are downgraded to non-acceptance so a flaky
// provider costs a stage, never the candidate
type emailStage struct {
	name string
	run  func(ctx context.Context, c domain.ClassifiedCandidate, target domain.CompanyTarget) (domain.EmailRecord, bool)
}

func (s *Service) emailStages() []emailStage {
	return []emailStage{
		{name: "verify", run: s.stageVerify},
		{name: "discover", run: s.stageDiscover},
	}
}

// resolveEmail drives the waterfall for one candidate. The result is always
// an EmailRecord; candidates that exhaust every stage come back Unresolved
// and are still persisted with their role
func (s *Service) resolveEmail(ctx context.Context, c domain.ClassifiedCandidate, target domain.CompanyTarget) domain.EmailRecord {
	for _, st := range s.emailStages() {
		rec, ok := st.run(ctx, c, target)
		if ok {
			return rec
		}
	}
	return domain.EmailRecord{Status: domain.EmailUnresolved}
}

// stageVerify checks an email the candidate already carries: syntax, domain
// agreement with the target, then the provider's deliverability signal
func (s *Service) stageVerify(ctx context.Context, c domain.ClassifiedCandidate, target domain.CompanyTarget) (domain.EmailRecord, bool) {
	email := firstEmail(c.Candidate)
	if email == "" || !syntacticallyValid(email) {
		return domain.EmailRecord{}, false
	}
	if target.Domain != "" {
		if d, ok := domains.FromEmail(email); !ok || !domains.Match(d, target.Domain) {
			return domain.EmailRecord{}, false
		}
	}

	v, err := s.verifier.Verify(ctx, email, c.FullName, target.Domain)
	if err != nil {
		s.log.Warn().Str("email_domain", afterAt(email)).Err(err).Msg("mailbox verification failed, advancing")
		return domain.EmailRecord{}, false
	}
	if !v.Valid || v.ConfidencePercent < verifyThreshold {
		return domain.EmailRecord{}, false
	}
	return domain.EmailRecord{
		Email:             email,
		Status:            domain.EmailVerified,
		ConfidencePercent: v.ConfidencePercent,
		Source:            "verify",
	}, true
}

// stageDiscover asks the discovery provider for an address. Only runs with a
// known domain and only accepts results the provider itself reports as
// deliverable
func (s *Service) stageDiscover(ctx context.Context, c domain.ClassifiedCandidate, target domain.CompanyTarget) (domain.EmailRecord, bool) {
	if target.Domain == "" {
		return domain.EmailRecord{}, false
	}
	first, last := splitName(c.FullName)
	g, err := s.discoverer.Discover(ctx, first, last, target.Domain)
	if err != nil {
		s.log.Warn().Str("company_id", target.ID).Err(err).Msg("email discovery failed, advancing")
		return domain.EmailRecord{}, false
	}
	if !g.Found || !g.Deliverable || g.Email == "" {
		return domain.EmailRecord{}, false
	}
	return domain.EmailRecord{
		Email:             g.Email,
		Status:            domain.EmailDiscovered,
		ConfidencePercent: g.ConfidencePercent,
		Source:            "discover",
	}, true
}

// splitName breaks a full name on the first space; single-token names
// leave the last name empty
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i >= 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, ""
}

func syntacticallyValid(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".") && !strings.ContainsAny(email, " \t")
}

func afterAt(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
