// Package orchestrator drives the discovery pipeline across a company
// portfolio until every company has a buyer group or the cycle budget runs
// out. The loop always terminates and always produces a run report
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"
	bgdomain "quorum/internal/services/buyergroups/domain"
	bgservice "quorum/internal/services/buyergroups/service"
	discdomain "quorum/internal/services/discovery/domain"
	"quorum/internal/services/runlog"
)

// Phase is the state machine position
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
	PhaseRechecking Phase = "rechecking"
	PhaseConverged  Phase = "converged"
	PhaseExhausted  Phase = "exhausted"
)

// Company final statuses in a run report
const (
	StatusComplete    = "Complete"
	StatusNeedsReview = "NeedsReview"
	statusFailedFmt   = "Failed: %s"
)

// CompanyStatus is one company's final outcome for a run
type CompanyStatus struct {
	CompanyID string
	Name      string
	Status    string
}

// RunReport is produced by every run, partial failure included
type RunReport struct {
	RunID       string
	WorkspaceID string
	Phase       Phase
	Cycles      int

	Scanned     int
	Fixed       int
	NeedsReview int
	Failed      int
	Rejections  int

	EmailsByStatus map[discdomain.EmailStatus]int
	Companies      []CompanyStatus

	StartedAt  time.Time
	FinishedAt time.Time
}

// Pipeline is the per-company discovery surface
type Pipeline interface {
	Discover(ctx context.Context, target discdomain.CompanyTarget) (discdomain.Assembly, error)
}

// Portfolio is the persistence surface the orchestrator scans and writes
type Portfolio interface {
	CompaniesNeedingGroups(ctx context.Context, workspaceID string, limit int) ([]bgdomain.Company, error)
	Upsert(ctx context.Context, company bgdomain.Company, asm discdomain.Assembly) (bgdomain.UpsertResult, error)
	Audit(ctx context.Context, workspaceID string) (bgservice.AuditReport, error)
}

// Reporter receives the finished run report. Best effort
type Reporter interface {
	WriteReport(ctx context.Context, r runlog.Report)
	WriteRejections(ctx context.Context, workspaceID, companyID string, rejections []discdomain.Rejection)
}

// Options tunes a run
type Options struct {
	WorkspaceID string

	// MaxCycles bounds Scanning-Processing round trips (default 12)
	MaxCycles int

	// ScanLimit caps companies picked up per cycle
	ScanLimit int

	// CompanyDelay spaces per-company pipeline runs for provider rate
	// limits
	CompanyDelay time.Duration
}

// Service is the convergence orchestrator for one workspace
type Service struct {
	log       logger.Logger
	pipeline  Pipeline
	portfolio Portfolio
	reporter  Reporter
	opts      Options

	now   func() time.Time
	sleep func(time.Duration)
}

// New constructs an orchestrator. The reporter is optional
func New(pipeline Pipeline, portfolio Portfolio, reporter Reporter, opts Options) *Service {
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = 12
	}
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = 50
	}
	return &Service{
		log:       *logger.Named("orchestrator"),
		pipeline:  pipeline,
		portfolio: portfolio,
		reporter:  reporter,
		opts:      opts,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Run drives Scanning -> Processing -> Rechecking until Converged or
// Exhausted. A report is always produced, even when the run aborts; only
// store unavailability and missing workspace configuration abort at all
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{
		RunID:          uuid.NewString(),
		WorkspaceID:    s.opts.WorkspaceID,
		EmailsByStatus: map[discdomain.EmailStatus]int{},
		StartedAt:      s.now(),
	}
	// downstream stages read these for run-scoped logging and writes
	ctx = store.WithRunID(store.WithWorkspace(ctx, s.opts.WorkspaceID), report.RunID)
	statuses := map[string]CompanyStatus{}

	var runErr error

loop:
	for {
		if err := ctx.Err(); err != nil {
			report.Phase, runErr = PhaseExhausted, err
			break
		}
		if report.Cycles >= s.opts.MaxCycles {
			report.Phase = PhaseExhausted
			break
		}

		phase := PhaseScanning
		if report.Cycles > 0 {
			phase = PhaseRechecking
		}
		s.log.Debug().Str("phase", string(phase)).Int("cycle", report.Cycles).Msg("scanning portfolio")

		companies, err := s.portfolio.CompaniesNeedingGroups(ctx, s.opts.WorkspaceID, s.opts.ScanLimit)
		if err != nil {
			// the store is the one dependency the loop cannot work around
			report.Phase = PhaseExhausted
			runErr = fmt.Errorf("portfolio scan: %w", err)
			break
		}
		if len(companies) == 0 {
			report.Phase = PhaseConverged
			break
		}
		report.Cycles++
		s.log.Debug().
			Str("phase", string(PhaseProcessing)).
			Int("companies", len(companies)).
			Msg("processing cycle")

		for i, c := range companies {
			if i > 0 && s.opts.CompanyDelay > 0 {
				s.sleep(s.opts.CompanyDelay)
			}
			if err := ctx.Err(); err != nil {
				report.Phase, runErr = PhaseExhausted, err
				break loop
			}
			st, err := s.processCompany(ctx, c, &report)
			statuses[c.ID] = st
			if err != nil {
				// only configuration errors escalate past one company
				report.Phase, runErr = PhaseExhausted, err
				break loop
			}
		}
	}

	report.FinishedAt = s.now()
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := statuses[id]
		report.Companies = append(report.Companies, st)
		switch {
		case st.Status == StatusComplete:
			report.Fixed++
		case st.Status == StatusNeedsReview:
			report.NeedsReview++
		default:
			report.Failed++
		}
	}
	report.Scanned = len(statuses)

	s.writeReport(ctx, report)

	s.log.Info().
		Str("run_id", report.RunID).
		Str("phase", string(report.Phase)).
		Int("cycles", report.Cycles).
		Int("scanned", report.Scanned).
		Int("fixed", report.Fixed).
		Msg("run finished")

	return report, runErr
}

// processCompany runs one company through the pipeline and persistence.
// Failures are folded into the returned status; only workspace
// configuration errors propagate
func (s *Service) processCompany(ctx context.Context, c bgdomain.Company, report *RunReport) (CompanyStatus, error) {
	st := CompanyStatus{CompanyID: c.ID, Name: c.Name}

	asm, err := s.pipeline.Discover(ctx, TargetOf(c))
	if err != nil {
		switch {
		case perr.IsCode(err, perr.ErrorCodeConfig):
			st.Status = fmt.Sprintf(statusFailedFmt, "workspace configuration missing")
			return st, err
		case perr.IsCode(err, perr.ErrorCodeNotFound), perr.IsCode(err, perr.ErrorCodeInvalidArgument):
			st.Status = StatusNeedsReview
			s.log.Info().Str("company_id", c.ID).Err(err).Msg("company needs review")
			return st, nil
		default:
			st.Status = fmt.Sprintf(statusFailedFmt, err.Error())
			s.log.Warn().Str("company_id", c.ID).Err(err).Msg("company pipeline failed this cycle")
			return st, nil
		}
	}

	report.Rejections += asm.Stats.Rejected
	for status, n := range asm.Stats.EmailsByStatus {
		report.EmailsByStatus[status] += n
	}

	if _, err := s.portfolio.Upsert(ctx, c, asm); err != nil {
		st.Status = fmt.Sprintf(statusFailedFmt, err.Error())
		s.log.Warn().Str("company_id", c.ID).Err(err).Msg("company persistence failed this cycle")
		return st, nil
	}
	st.Status = StatusComplete
	return st, nil
}

// Audit runs the standalone re-validation pass over persisted groups and
// records any removals as rejections
func (s *Service) Audit(ctx context.Context) (bgservice.AuditReport, error) {
	report, err := s.portfolio.Audit(ctx, s.opts.WorkspaceID)
	if err != nil {
		return report, err
	}
	if s.reporter != nil && len(report.Rejections) > 0 {
		s.reporter.WriteRejections(ctx, s.opts.WorkspaceID, "", report.Rejections)
	}
	s.log.Info().
		Int("checked", report.Checked).
		Int("removed", report.Removed).
		Msg("audit finished")
	return report, nil
}

func (s *Service) writeReport(ctx context.Context, r RunReport) {
	if s.reporter == nil {
		return
	}
	s.reporter.WriteReport(ctx, runlog.Report{
		RunID:       r.RunID,
		WorkspaceID: r.WorkspaceID,
		Phase:       string(r.Phase),
		Cycles:      r.Cycles,
		Scanned:     r.Scanned,
		Fixed:       r.Fixed,
		NeedsReview: r.NeedsReview,
		Failed:      r.Failed,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	})
}

// TargetOf maps a stored company onto a discovery target
func TargetOf(c bgdomain.Company) discdomain.CompanyTarget {
	return discdomain.CompanyTarget{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Domain:      c.Domain,
		NetworkURL:  c.NetworkURL,
		Industry:    c.Industry,
		SizeBand:    c.SizeBand,
	}
}
