package discovery

import (
	"context"

	"quorum/internal/adapters/providers/emaildisc"
	"quorum/internal/adapters/providers/identitygraph"
	"quorum/internal/adapters/providers/mailverify"
	"quorum/internal/adapters/providers/research"
	"quorum/internal/services/discovery/domain"
)

// Provider adapters: map the REST clients' payload types onto the pipeline's
// ports so the service stays provider-agnostic.

// GraphSourcer adapts the identity-graph client to the Sourcer port
type GraphSourcer struct{ Client *identitygraph.Client }

func (g GraphSourcer) SearchByWebsite(ctx context.Context, website string) ([]domain.Candidate, error) {
	hits, err := g.Client.SearchByWebsite(ctx, website)
	return mapHits(hits), err
}

func (g GraphSourcer) SearchByNetworkID(ctx context.Context, networkID string) ([]domain.Candidate, error) {
	hits, err := g.Client.SearchByNetworkID(ctx, networkID)
	return mapHits(hits), err
}

func (g GraphSourcer) SearchByName(ctx context.Context, name string) ([]domain.Candidate, error) {
	hits, err := g.Client.SearchByName(ctx, name)
	return mapHits(hits), err
}

func (g GraphSourcer) CollectOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := g.Client.CollectOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Organization{ID: org.ID, Name: org.Name, Domain: org.Domain, Size: org.Size}, nil
}

func mapHits(hits []identitygraph.PersonHit) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		c := domain.Candidate{
			FullName:   h.FullName,
			Title:      h.Title,
			Department: h.Department,
			NetworkURL: h.NetworkURL,
			ProviderID: h.ID,
			CompanyID:  h.CompanyID,
			AdvisoryDM: h.IsDecisionMaker,
		}
		if h.Email != "" {
			c.Emails = []string{h.Email}
		}
		out = append(out, c)
	}
	return out
}

// ResearchSourcer adapts the research client to the Researcher port
type ResearchSourcer struct{ Client *research.Client }

func (r ResearchSourcer) Research(ctx context.Context, target domain.CompanyTarget) ([]domain.Candidate, error) {
	prospects, err := r.Client.Research(ctx, research.Query{
		CompanyName: target.Name,
		Domain:      target.Domain,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(prospects))
	for _, p := range prospects {
		out = append(out, domain.Candidate{
			FullName:   p.FullName,
			Title:      p.Title,
			Department: p.Department,
			NetworkURL: p.NetworkURL,
		})
	}
	return out, nil
}

// MailVerifier adapts the mailbox verification client to the Verifier port
type MailVerifier struct{ Client *mailverify.Client }

func (m MailVerifier) Verify(ctx context.Context, email, fullName, companyDomain string) (domain.Verification, error) {
	v, err := m.Client.Verify(ctx, email, fullName, companyDomain)
	if err != nil {
		return domain.Verification{}, err
	}
	return domain.Verification{
		Valid:             v.Status == mailverify.StatusValid && !v.Disposable,
		ConfidencePercent: v.Confidence,
	}, nil
}

// EmailDiscoverer adapts the discovery client to the Discoverer port
type EmailDiscoverer struct{ Client *emaildisc.Client }

func (e EmailDiscoverer) Discover(ctx context.Context, firstName, lastName, companyDomain string) (domain.Guess, error) {
	d, err := e.Client.Discover(ctx, firstName, lastName, companyDomain)
	if err != nil {
		return domain.Guess{}, err
	}
	if d.Status == emaildisc.StatusNotFound || d.Email == "" {
		return domain.Guess{}, nil
	}
	return domain.Guess{
		Email:             d.Email,
		Found:             true,
		Deliverable:       d.Status == emaildisc.StatusFound,
		ConfidencePercent: d.Confidence,
	}, nil
}
