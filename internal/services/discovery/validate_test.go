package discovery

import (
	"testing"

	"quorum/internal/services/discovery/domain"
)

func TestValidateNoEmailNeverRejected(t *testing.T) {
	target := domain.CompanyTarget{ID: "c1", Domain: "underline.com"}
	cands := []domain.Candidate{
		{FullName: "No Mail"},
		{FullName: "Empty Mail", Emails: []string{""}},
	}

	validated, rejections := validate(target, cands)
	if len(rejections) != 0 {
		t.Fatalf("no-email candidates must not be rejected: %+v", rejections)
	}
	for _, v := range validated {
		if v.Outcome != domain.OutcomeNoEmail {
			t.Errorf("%s: outcome = %q, want %q", v.FullName, v.Outcome, domain.OutcomeNoEmail)
		}
	}
}

func TestValidateRejectsCrossTLD(t *testing.T) {
	target := domain.CompanyTarget{ID: "c1", Domain: "underline.com"}
	cands := []domain.Candidate{
		{FullName: "Olga Lev", Emails: []string{"olga.lev@underline.cz"}},
		{FullName: "Jane Roe", Emails: []string{"jane.roe@underline.com"}},
	}

	validated, rejections := validate(target, cands)
	if len(validated) != 1 || validated[0].FullName != "Jane Roe" {
		t.Fatalf("want only Jane Roe validated, got %+v", validated)
	}
	if validated[0].Outcome != domain.OutcomeMatched {
		t.Fatalf("Jane Roe outcome = %q", validated[0].Outcome)
	}
	if len(rejections) != 1 {
		t.Fatalf("want 1 rejection, got %d", len(rejections))
	}
	r := rejections[0]
	if r.Reason != "email domain mismatch: underline.cz != underline.com" {
		t.Fatalf("reason = %q", r.Reason)
	}
	if r.CandidateDomain != "underline.cz" || r.TargetDomain != "underline.com" {
		t.Fatalf("rejection domains = %+v", r)
	}
}

func TestValidateSubdomainEmailMatches(t *testing.T) {
	target := domain.CompanyTarget{ID: "c1", Domain: "underline.com"}
	validated, rejections := validate(target, []domain.Candidate{
		{FullName: "Ops Bot", Emails: []string{"ops@mail.underline.com"}},
	})
	if len(rejections) != 0 {
		t.Fatalf("subdomain email should match: %+v", rejections)
	}
	if validated[0].Outcome != domain.OutcomeMatched {
		t.Fatalf("outcome = %q", validated[0].Outcome)
	}
}

func TestValidateNoTargetDomainPassesThrough(t *testing.T) {
	target := domain.CompanyTarget{ID: "c1", Name: "Underline"}
	validated, rejections := validate(target, []domain.Candidate{
		{FullName: "Jane Roe", Emails: []string{"jane.roe@underline.com"}},
	})
	if len(rejections) != 0 {
		t.Fatalf("nothing to compare against should not reject: %+v", rejections)
	}
	if validated[0].Outcome != domain.OutcomeNoEmail {
		t.Fatalf("outcome = %q, want pass-through", validated[0].Outcome)
	}
}
