package discovery

import (
	"context"

	"quorum/internal/core/domains"
	"quorum/internal/core/textnorm"
	"quorum/internal/services/discovery/domain"
)

// sourceResult is a tagged strategy outcome. Exactly one of the three
// shapes applies: hits (success), empty, or err
type sourceResult struct {
	strategy string
	hits     []domain.Candidate
	err      error
}

func success(strategy string, hits []domain.Candidate) sourceResult {
	return sourceResult{strategy: strategy, hits: hits}
}

func empty(strategy string) sourceResult { return sourceResult{strategy: strategy} }

func failed(strategy string, err error) sourceResult {
	return sourceResult{strategy: strategy, err: err}
}

// sourceStrategy is one rung of the sourcing waterfall. Strategies are
// ordered by disambiguation strength; the driver stops at the first success
// so hits from different strategies are never mixed
type sourceStrategy struct {
	name string
	run  func(ctx context.Context, target domain.CompanyTarget) sourceResult
}

func (s *Service) strategies() []sourceStrategy {
	return []sourceStrategy{
		{name: "website", run: s.sourceByWebsite},
		{name: "network", run: s.sourceByNetwork},
		{name: "name", run: s.sourceByName},
		{name: "research", run: s.sourceByResearch},
	}
}

// source drives the waterfall. A strategy error is logged and treated as
// empty for that rung; only exhausting every rung yields an empty list
func (s *Service) source(ctx context.Context, target domain.CompanyTarget) ([]domain.Candidate, string) {
	for _, st := range s.strategies() {
		res := st.run(ctx, target)
		if res.err != nil {
			s.log.Warn().
				Str("strategy", st.name).
				Str("company_id", target.ID).
				Err(res.err).
				Msg("sourcing strategy failed, advancing")
			continue
		}
		if len(res.hits) == 0 {
			continue
		}
		s.log.Debug().
			Str("strategy", st.name).
			Str("company_id", target.ID).
			Int("hits", len(res.hits)).
			Msg("sourcing strategy matched")
		return res.hits, res.strategy
	}
	return nil, ""
}

func (s *Service) sourceByWebsite(ctx context.Context, target domain.CompanyTarget) sourceResult {
	if target.Domain == "" {
		return empty("website")
	}
	hits, err := s.sourcer.SearchByWebsite(ctx, target.Domain)
	if err != nil {
		return failed("website", err)
	}
	return success("website", tagSource(hits, "website"))
}

func (s *Service) sourceByNetwork(ctx context.Context, target domain.CompanyTarget) sourceResult {
	if target.NetworkURL == "" {
		return empty("network")
	}
	hits, err := s.sourcer.SearchByNetworkID(ctx, target.NetworkURL)
	if err != nil {
		return failed("network", err)
	}
	return success("network", tagSource(hits, "network"))
}

// sourceByName is the weakest rung: free text company names collide, so a
// non-empty result is only trusted after the provider's own organization
// record agrees with the target
func (s *Service) sourceByName(ctx context.Context, target domain.CompanyTarget) sourceResult {
	if target.Name == "" {
		return empty("name")
	}
	hits, err := s.sourcer.SearchByName(ctx, target.Name)
	if err != nil {
		return failed("name", err)
	}
	if len(hits) == 0 {
		return empty("name")
	}
	if !s.confirmOrganization(ctx, target, hits) {
		s.log.Warn().
			Str("company_id", target.ID).
			Str("company_name", target.Name).
			Msg("name search hits failed organization sanity check, discarding")
		return empty("name")
	}
	return success("name", tagSource(hits, "name"))
}

// confirmOrganization checks the provider org behind the first hit against
// the target. With a known target domain the domains must match; without
// one we fall back to a folded name comparison
func (s *Service) confirmOrganization(ctx context.Context, target domain.CompanyTarget, hits []domain.Candidate) bool {
	orgID := ""
	for _, h := range hits {
		if h.CompanyID != "" {
			orgID = h.CompanyID
			break
		}
	}
	if orgID == "" {
		// nothing to confirm against; let the domain validator sort it out
		return true
	}
	org, err := s.sourcer.CollectOrganization(ctx, orgID)
	if err != nil {
		s.log.Warn().Str("org_id", orgID).Err(err).Msg("organization collect failed, trusting hits")
		return true
	}
	if target.Domain != "" && org.Domain != "" {
		return domains.Match(org.Domain, target.Domain)
	}
	return textnorm.Equal(org.Name, target.Name)
}

func (s *Service) sourceByResearch(ctx context.Context, target domain.CompanyTarget) sourceResult {
	if s.researcher == nil {
		return empty("research")
	}
	hits, err := s.researcher.Research(ctx, target)
	if err != nil {
		return failed("research", err)
	}
	return success("research", tagSource(hits, "research"))
}

func tagSource(hits []domain.Candidate, strategy string) []domain.Candidate {
	for i := range hits {
		hits[i].Source = strategy
	}
	return hits
}
