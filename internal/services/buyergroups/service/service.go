// Package service implements the idempotent buyer-group persistence layer
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quorum/internal/core/domains"
	"quorum/internal/core/roles"
	"quorum/internal/core/textnorm"
	"quorum/internal/modkit"
	"quorum/internal/modkit/repokit"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"
	"quorum/internal/services/buyergroups/domain"
	discdomain "quorum/internal/services/discovery/domain"
)

// newID is a seam so tests can pin identifiers
var newID = uuid.NewString

// Service enforces the upsert contract: one group per (workspace, company),
// no duplicate people or member links, and email monotonicity on re-runs
type Service struct {
	log    logger.Logger
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
}

// New constructs the persistence service over a repo binder
func New(deps modkit.Deps, binder repokit.Binder[domain.Repo]) *Service {
	return &Service{
		log:    *logger.Named("buyergroups"),
		db:     deps.PG,
		binder: binder,
	}
}

// Upsert writes one company's assembled group. Re-running with identical
// input changes no row counts; a single member's failure is logged and
// skipped without rolling back the rest of the group
func (s *Service) Upsert(ctx context.Context, company domain.Company, asm discdomain.Assembly) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	r := s.binder.Bind(s.db)

	merged, err := r.MergeDuplicateGroups(ctx, company.WorkspaceID, company.ID)
	if err != nil {
		return res, fmt.Errorf("upsert buyer group: %w", err)
	}
	if merged > 0 {
		s.log.Warn().
			Str("company_id", company.ID).
			Int("merged", merged).
			Msg("duplicate buyer groups merged into earliest row")
	}

	groupID, created, err := r.UpsertGroup(ctx, domain.BuyerGroup{
		ID:           newID(),
		WorkspaceID:  company.WorkspaceID,
		CompanyID:    company.ID,
		Status:       "active",
		Priority:     "standard",
		Methodology:  asm.Stats.SourceStrategy,
		Distribution: roleCounts(asm),
	})
	if err != nil {
		return res, fmt.Errorf("upsert buyer group: %w", err)
	}
	res.GroupID = groupID
	res.GroupCreated = created

	if err := r.ClearPrimary(ctx, groupID); err != nil {
		return res, fmt.Errorf("upsert buyer group: %w", err)
	}

	for _, m := range asm.Members {
		if err := s.upsertMember(ctx, company, groupID, m, &res); err != nil {
			res.MembersSkipped++
			s.log.Warn().
				Str("company_id", company.ID).
				Str("group_id", groupID).
				Err(err).
				Msg("member write failed, skipping")
		}
	}

	return res, nil
}

// upsertMember runs one member's person-match and writes inside its own
// workspace-scoped transaction so a failure never poisons the siblings
func (s *Service) upsertMember(
	ctx context.Context,
	company domain.Company,
	groupID string,
	m discdomain.Member,
	res *domain.UpsertResult,
) error {
	return store.RunInWorkspace(ctx, s.db, company.WorkspaceID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)

		existing, err := r.MatchPerson(ctx, company.WorkspaceID, company.ID, textnorm.Fold(m.FullName), m.NetworkURL)
		if err != nil {
			return err
		}

		p := domain.Person{
			WorkspaceID:     company.WorkspaceID,
			CompanyID:       company.ID,
			FullName:        m.FullName,
			Title:           m.Title,
			Department:      m.Department,
			NetworkURL:      m.NetworkURL,
			Email:           m.Email.Email,
			EmailStatus:     string(m.Email.Status),
			EmailConfidence: m.Email.ConfidencePercent,
			Role:            m.Role,
			RoleConfidence:  m.RoleConfidence,
		}
		if existing == nil {
			p.ID = newID()
			res.PeopleCreated++
		} else {
			p.ID = existing.ID
			res.PeopleMatched++
			keepExistingEmail(&p, *existing, m.Email)
		}

		if err := r.UpsertPerson(ctx, p); err != nil {
			return err
		}
		if err := r.UpsertMember(ctx, domain.BuyerGroupMember{
			GroupID:        groupID,
			PersonID:       p.ID,
			Role:           m.Role,
			InfluenceTier:  m.InfluenceTier,
			IsPrimary:      m.IsPrimary,
			RoleConfidence: m.RoleConfidence,
		}); err != nil {
			return err
		}
		res.MembersWritten++
		return nil
	})
}

// keepExistingEmail enforces email monotonicity: the stored record survives
// unless the new one supersedes it (verified beats discovered, higher
// confidence beats lower)
func keepExistingEmail(p *domain.Person, existing domain.Person, next discdomain.EmailRecord) {
	if existing.Email == "" {
		return
	}
	prev := discdomain.EmailRecord{
		Email:             existing.Email,
		Status:            discdomain.EmailStatus(existing.EmailStatus),
		ConfidencePercent: existing.EmailConfidence,
	}
	if next.Supersedes(prev) {
		return
	}
	p.Email = prev.Email
	p.EmailStatus = string(prev.Status)
	p.EmailConfidence = prev.ConfidencePercent
}

func roleCounts(asm discdomain.Assembly) map[roles.Role]int {
	out := make(map[roles.Role]int, len(asm.Members))
	for _, m := range asm.Members {
		out[m.Role]++
	}
	return out
}

// CompaniesNeedingGroups is the orchestrator's scan. Companies missing a
// domain get a best-effort one derived from the majority email domain of
// their existing people
func (s *Service) CompaniesNeedingGroups(ctx context.Context, workspaceID string, limit int) ([]domain.Company, error) {
	r := s.binder.Bind(s.db)
	companies, err := r.CompaniesNeedingGroups(ctx, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan companies: %w", err)
	}

	for i := range companies {
		if companies[i].Domain != "" {
			continue
		}
		raw, err := r.MajorityEmailDomain(ctx, companies[i].ID)
		if err != nil {
			s.log.Warn().Str("company_id", companies[i].ID).Err(err).Msg("majority email domain lookup failed")
			continue
		}
		derived, ok := domains.Canonical(raw)
		if !ok {
			continue
		}
		companies[i].Domain = derived
		if err := r.SetCompanyDomain(ctx, companies[i].ID, derived); err != nil {
			s.log.Warn().Str("company_id", companies[i].ID).Err(err).Msg("derived domain backfill failed")
		}
	}
	return companies, nil
}

// AuditReport summarizes a standalone re-validation pass
type AuditReport struct {
	Checked    int
	Removed    int
	Rejections []discdomain.Rejection
}

// Audit re-runs domain validation over every persisted member and removes
// links whose email domain no longer matches the company
func (s *Service) Audit(ctx context.Context, workspaceID string) (AuditReport, error) {
	r := s.binder.Bind(s.db)
	members, err := r.AuditMembers(ctx, workspaceID)
	if err != nil {
		return AuditReport{}, fmt.Errorf("audit members: %w", err)
	}

	report := AuditReport{Checked: len(members)}
	for _, am := range members {
		if am.Email == "" || am.CompanyDomain == "" {
			continue
		}
		d, ok := domains.FromEmail(am.Email)
		if !ok || domains.Match(d, am.CompanyDomain) {
			continue
		}
		if err := r.RemoveMember(ctx, am.GroupID, am.ID); err != nil {
			s.log.Warn().Str("person_id", am.ID).Err(err).Msg("audit member removal failed")
			continue
		}
		report.Removed++
		report.Rejections = append(report.Rejections, discdomain.Rejection{
			FullName:        am.FullName,
			Reason:          fmt.Sprintf("email domain mismatch: %s != %s", d, am.CompanyDomain),
			CandidateDomain: d,
			TargetDomain:    am.CompanyDomain,
		})
	}
	return report, nil
}

// GroupByCompany is a read pass-through for the API
func (s *Service) GroupByCompany(ctx context.Context, workspaceID, companyID string) (*domain.GroupView, error) {
	return s.binder.Bind(s.db).GroupByCompany(ctx, workspaceID, companyID)
}

// ListRecentGroups is a read pass-through for the API
func (s *Service) ListRecentGroups(ctx context.Context, workspaceID string, limit int) ([]domain.BuyerGroup, error) {
	return s.binder.Bind(s.db).ListRecentGroups(ctx, workspaceID, limit)
}
