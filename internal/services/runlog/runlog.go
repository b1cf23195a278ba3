// Package runlog is the append-only event sink for discovery runs. It is
// strictly best-effort: an unreachable event log drops events with a warning
// and never fails the pipeline
package runlog

import (
	"context"
	"time"

	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"
	"quorum/internal/services/discovery/domain"
)

const (
	rejectionsTable = "quorum.rejections"
	reportsTable    = "quorum.run_reports"
)

// Report is one orchestrator run flattened for the event log
type Report struct {
	RunID       string
	WorkspaceID string
	Phase       string
	Cycles      int
	Scanned     int
	Fixed       int
	NeedsReview int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Sink writes run events to the columnar store
type Sink struct {
	ch  store.Clickhouse
	log logger.Logger
	now func() time.Time
}

// New constructs a Sink. A nil Clickhouse is allowed and turns every write
// into a logged no-op
func New(ch store.Clickhouse) *Sink {
	return &Sink{
		ch:  ch,
		log: *logger.Named("runlog"),
		now: time.Now,
	}
}

// WriteRejections records validator rejections. Implements the discovery
// pipeline's RejectionSink port
func (s *Sink) WriteRejections(ctx context.Context, workspaceID, companyID string, rejections []domain.Rejection) {
	if len(rejections) == 0 {
		return
	}
	if s.ch == nil {
		s.log.Debug().Int("dropped", len(rejections)).Msg("event log disabled, dropping rejections")
		return
	}

	at := s.now()
	rows := make([][]any, 0, len(rejections))
	for _, r := range rejections {
		rows = append(rows, []any{
			workspaceID, companyID, r.FullName, r.Reason,
			r.CandidateDomain, r.TargetDomain, at,
		})
	}
	if err := s.ch.Insert(ctx, rejectionsTable, rows); err != nil {
		s.log.Warn().Err(err).Int("dropped", len(rows)).Msg("rejection write failed, dropping")
	}
}

// WriteReport records a finished run
func (s *Sink) WriteReport(ctx context.Context, r Report) {
	if s.ch == nil {
		s.log.Debug().Str("run_id", r.RunID).Msg("event log disabled, dropping report")
		return
	}
	rows := [][]any{{
		r.RunID, r.WorkspaceID, r.Phase, r.Cycles,
		r.Scanned, r.Fixed, r.NeedsReview, r.Failed,
		r.StartedAt, r.FinishedAt,
	}}
	if err := s.ch.Insert(ctx, reportsTable, rows); err != nil {
		s.log.Warn().Err(err).Str("run_id", r.RunID).Msg("report write failed, dropping")
	}
}

// RecentReports lists the workspace's latest run reports for the API
func (s *Sink) RecentReports(ctx context.Context, workspaceID string, limit int) ([]Report, error) {
	if s.ch == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	const sql = `
		SELECT run_id, workspace_id, phase, cycles,
		       scanned, fixed, needs_review, failed,
		       started_at, finished_at
		FROM quorum.run_reports
		WHERE workspace_id = ?
		ORDER BY finished_at DESC
		LIMIT ?
	`
	rows, err := s.ch.Query(ctx, sql, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(
			&r.RunID, &r.WorkspaceID, &r.Phase, &r.Cycles,
			&r.Scanned, &r.Fixed, &r.NeedsReview, &r.Failed,
			&r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
