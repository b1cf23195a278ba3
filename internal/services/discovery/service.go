// Package discovery implements the per-company buyer-group pipeline:
// sourcing, domain validation, role classification, the email waterfall,
// and assembly
package discovery

import (
	"context"
	"time"

	"quorum/internal/core/icp"
	"quorum/internal/core/roles"
	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"
	"quorum/internal/services/discovery/domain"
)

// Options tunes a Service
type Options struct {
	// WaterfallPause spaces per-candidate email calls to respect provider
	// rate limits
	WaterfallPause time.Duration
}

// Service drives the pipeline for one company at a time
type Service struct {
	log        logger.Logger
	classifier *roles.Classifier
	sizing     icp.Sizing

	sourcer    domain.Sourcer
	researcher domain.Researcher
	verifier   domain.Verifier
	discoverer domain.Discoverer
	rejections domain.RejectionSink

	pause time.Duration
	sleep func(time.Duration)
}

// New builds a Service for one workspace's ICP profile. The researcher and
// rejection sink are optional; everything else is required
func New(
	profile icp.Profile,
	sourcer domain.Sourcer,
	researcher domain.Researcher,
	verifier domain.Verifier,
	discoverer domain.Discoverer,
	rejections domain.RejectionSink,
	opts Options,
) *Service {
	return &Service{
		log:        *logger.Named("discovery"),
		classifier: roles.New(roles.Compile(profile)),
		sizing:     profile.Sizing,
		sourcer:    sourcer,
		researcher: researcher,
		verifier:   verifier,
		discoverer: discoverer,
		rejections: rejections,
		pause:      opts.WaterfallPause,
		sleep:      time.Sleep,
	}
}

// Discover runs the full pipeline for one target and returns the assembled
// group. A NotFound error means the company produced nothing persistable
// this cycle (no candidates, or every candidate rejected); callers treat
// that as needs-review, not as a failure
func (s *Service) Discover(ctx context.Context, target domain.CompanyTarget) (domain.Assembly, error) {
	log := s.log
	if runID, ok := store.RunID(ctx); ok {
		log = log.With().Str("run_id", runID).Logger()
	}

	if !target.Sourceable() {
		return domain.Assembly{}, perr.Newf(
			perr.ErrorCodeInvalidArgument,
			"company %s has no domain, network url, or name to source by", target.ID,
		)
	}

	candidates, strategy := s.source(ctx, target)
	if len(candidates) == 0 {
		return domain.Assembly{}, perr.NotFoundf("no candidates found for company %s", target.ID)
	}

	validated, rejections := validate(target, candidates)
	if len(rejections) > 0 && s.rejections != nil {
		s.rejections.WriteRejections(ctx, target.WorkspaceID, target.ID, rejections)
	}
	for _, r := range rejections {
		log.Info().
			Str("company_id", target.ID).
			Str("candidate_domain", r.CandidateDomain).
			Str("target_domain", r.TargetDomain).
			Msg("candidate rejected by domain validation")
	}
	if len(validated) == 0 {
		return domain.Assembly{}, perr.NotFoundf(
			"all %d candidates rejected by domain validation for company %s", len(candidates), target.ID,
		)
	}

	classified := classify(s.classifier, validated)

	emailCounts := map[domain.EmailStatus]int{}
	pool := make([]resolved, 0, len(classified))
	for i, c := range classified {
		if i > 0 && s.pause > 0 {
			s.sleep(s.pause)
		}
		if err := ctx.Err(); err != nil {
			return domain.Assembly{}, err
		}
		rec := s.resolveEmail(ctx, c, target)
		emailCounts[rec.Status]++
		pool = append(pool, resolved{ClassifiedCandidate: c, Email: rec})
	}

	asm := assemble(target, s.sizing, pool)
	asm.Stats = domain.Stats{
		Sourced:        len(candidates),
		Rejected:       len(rejections),
		EmailsByStatus: emailCounts,
		Rejections:     rejections,
		SourceStrategy: strategy,
	}

	log.Info().
		Str("company_id", target.ID).
		Str("strategy", strategy).
		Int("sourced", len(candidates)).
		Int("rejected", len(rejections)).
		Int("members", asm.TotalMembers()).
		Msg("buyer group assembled")

	return asm, nil
}
