package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/store"
	bgdomain "quorum/internal/services/buyergroups/domain"
	bgservice "quorum/internal/services/buyergroups/service"
	discdomain "quorum/internal/services/discovery/domain"
	"quorum/internal/services/runlog"
)

type fakePipeline struct {
	asm map[string]discdomain.Assembly
	err map[string]error

	calls      []string
	runIDs     []string
	workspaces []string
}

func (f *fakePipeline) Discover(ctx context.Context, t discdomain.CompanyTarget) (discdomain.Assembly, error) {
	f.calls = append(f.calls, t.ID)
	if id, ok := store.RunID(ctx); ok {
		f.runIDs = append(f.runIDs, id)
	}
	if ws, ok := store.WorkspaceID(ctx); ok {
		f.workspaces = append(f.workspaces, ws)
	}
	if err, ok := f.err[t.ID]; ok {
		return discdomain.Assembly{}, err
	}
	return f.asm[t.ID], nil
}

// fakePortfolio serves a shrinking pending set: companies move out of the
// scan result once Upsert succeeds, mirroring the real scan predicate
type fakePortfolio struct {
	pending   []bgdomain.Company
	scanErr   error
	upsertErr map[string]error
	audit     bgservice.AuditReport

	scans   int
	upserts int
}

func (f *fakePortfolio) CompaniesNeedingGroups(_ context.Context, _ string, limit int) ([]bgdomain.Company, error) {
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := f.pending
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]bgdomain.Company(nil), out...), nil
}

func (f *fakePortfolio) Upsert(_ context.Context, c bgdomain.Company, _ discdomain.Assembly) (bgdomain.UpsertResult, error) {
	f.upserts++
	if err, ok := f.upsertErr[c.ID]; ok {
		delete(f.upsertErr, c.ID) // injected failures fire once
		return bgdomain.UpsertResult{}, err
	}
	kept := f.pending[:0]
	for _, p := range f.pending {
		if p.ID != c.ID {
			kept = append(kept, p)
		}
	}
	f.pending = kept
	return bgdomain.UpsertResult{GroupID: "bg-" + c.ID}, nil
}

func (f *fakePortfolio) Audit(context.Context, string) (bgservice.AuditReport, error) {
	return f.audit, nil
}

type fakeReporter struct {
	reports    []runlog.Report
	rejections []discdomain.Rejection
}

func (f *fakeReporter) WriteReport(_ context.Context, r runlog.Report) {
	f.reports = append(f.reports, r)
}

func (f *fakeReporter) WriteRejections(_ context.Context, _, _ string, rs []discdomain.Rejection) {
	f.rejections = append(f.rejections, rs...)
}

func testOrch(t *testing.T, p *fakePipeline, pf *fakePortfolio, rep *fakeReporter, opts Options) (*Service, *[]time.Duration) {
	t.Helper()
	if opts.WorkspaceID == "" {
		opts.WorkspaceID = "ws-test"
	}
	s := New(p, pf, rep, opts)
	var pauses []time.Duration
	s.sleep = func(d time.Duration) { pauses = append(pauses, d) }
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		base = base.Add(time.Minute)
		return base
	}
	return s, &pauses
}

func company(id, domain string) bgdomain.Company {
	return bgdomain.Company{ID: id, WorkspaceID: "ws-test", Name: "Co " + id, Domain: domain}
}

func assemblyFor(id string) discdomain.Assembly {
	return discdomain.Assembly{
		Stats: discdomain.Stats{
			Sourced:  3,
			Rejected: 1,
			EmailsByStatus: map[discdomain.EmailStatus]int{
				discdomain.EmailVerified:   1,
				discdomain.EmailUnresolved: 1,
			},
			SourceStrategy: "website",
		},
	}
}

func TestRunConvergesWhenPortfolioDrains(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{company("c1", "a.com"), company("c2", "b.com")}}
	p := &fakePipeline{asm: map[string]discdomain.Assembly{
		"c1": assemblyFor("c1"),
		"c2": assemblyFor("c2"),
	}}
	rep := &fakeReporter{}
	s, _ := testOrch(t, p, pf, rep, Options{})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Phase != PhaseConverged {
		t.Fatalf("phase = %s, want converged", report.Phase)
	}
	if report.Cycles != 1 {
		t.Fatalf("cycles = %d, want 1", report.Cycles)
	}
	if report.Fixed != 2 || report.Failed != 0 || report.Scanned != 2 {
		t.Fatalf("counts = fixed %d failed %d scanned %d", report.Fixed, report.Failed, report.Scanned)
	}
	if report.Rejections != 2 {
		t.Fatalf("rejections = %d, want 2", report.Rejections)
	}
	if got := report.EmailsByStatus[discdomain.EmailVerified]; got != 2 {
		t.Fatalf("verified emails = %d, want 2", got)
	}
	if len(rep.reports) != 1 {
		t.Fatalf("reports written = %d, want 1", len(rep.reports))
	}
	if rep.reports[0].Phase != string(PhaseConverged) {
		t.Fatalf("persisted phase = %s", rep.reports[0].Phase)
	}
}

// the termination guarantee: a portfolio where every company permanently
// fails still halts within MaxCycles, with a report
func TestRunExhaustsOnPermanentFailures(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{company("c1", "a.com")}}
	p := &fakePipeline{err: map[string]error{
		"c1": perr.Unavailablef("provider down"),
	}}
	rep := &fakeReporter{}
	s, _ := testOrch(t, p, pf, rep, Options{MaxCycles: 5})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Phase != PhaseExhausted {
		t.Fatalf("phase = %s, want exhausted", report.Phase)
	}
	if report.Cycles != 5 {
		t.Fatalf("cycles = %d, want 5", report.Cycles)
	}
	if len(p.calls) != 5 {
		t.Fatalf("pipeline calls = %d, want 5", len(p.calls))
	}
	if report.Failed != 1 || report.Fixed != 0 {
		t.Fatalf("counts = failed %d fixed %d", report.Failed, report.Fixed)
	}
	if len(report.Companies) != 1 || !strings.HasPrefix(report.Companies[0].Status, "Failed: ") {
		t.Fatalf("company status = %+v", report.Companies)
	}
	if len(rep.reports) != 1 {
		t.Fatal("report must be written even for exhausted runs")
	}
}

func TestRunNoCandidatesMeansNeedsReview(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{company("c1", "a.com")}}
	p := &fakePipeline{err: map[string]error{
		"c1": perr.NotFoundf("no candidates found for target"),
	}}
	s, _ := testOrch(t, p, pf, &fakeReporter{}, Options{MaxCycles: 3})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Phase != PhaseExhausted {
		t.Fatalf("phase = %s", report.Phase)
	}
	if report.NeedsReview != 1 || report.Failed != 0 {
		t.Fatalf("counts = review %d failed %d", report.NeedsReview, report.Failed)
	}
	if report.Companies[0].Status != StatusNeedsReview {
		t.Fatalf("status = %s", report.Companies[0].Status)
	}
}

func TestRunConfigErrorAbortsWorkspace(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{company("c1", "a.com"), company("c2", "b.com")}}
	p := &fakePipeline{err: map[string]error{
		"c1": perr.Configf("no provider keys configured"),
	}}
	rep := &fakeReporter{}
	s, _ := testOrch(t, p, pf, rep, Options{})

	report, err := s.Run(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("err = %v, want config code", err)
	}
	if report.Phase != PhaseExhausted {
		t.Fatalf("phase = %s", report.Phase)
	}
	// c2 is never attempted once the workspace config is known broken
	if len(p.calls) != 1 {
		t.Fatalf("pipeline calls = %v", p.calls)
	}
	if len(rep.reports) != 1 {
		t.Fatal("aborted runs still write a report")
	}
}

func TestRunScanErrorAborts(t *testing.T) {
	pf := &fakePortfolio{scanErr: perr.Unavailablef("pg down")}
	rep := &fakeReporter{}
	s, _ := testOrch(t, &fakePipeline{}, pf, rep, Options{})

	report, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("want error on store unavailability")
	}
	if report.Phase != PhaseExhausted {
		t.Fatalf("phase = %s", report.Phase)
	}
	if len(rep.reports) != 1 {
		t.Fatal("report still written")
	}
}

func TestRunPacesCompanies(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{
		company("c1", "a.com"), company("c2", "b.com"), company("c3", "c.com"),
	}}
	p := &fakePipeline{asm: map[string]discdomain.Assembly{
		"c1": assemblyFor("c1"), "c2": assemblyFor("c2"), "c3": assemblyFor("c3"),
	}}
	s, pauses := testOrch(t, p, pf, &fakeReporter{}, Options{CompanyDelay: 2 * time.Second})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(*pauses) != 2 {
		t.Fatalf("pauses = %d, want 2", len(*pauses))
	}
	for _, d := range *pauses {
		if d != 2*time.Second {
			t.Fatalf("pause = %s", d)
		}
	}
}

func TestRunRetriesFailedCompanyNextCycle(t *testing.T) {
	// upsert fails on the first cycle only; the rechecking cycle should
	// pick c1 up again and complete it, with the final status winning
	pf := &fakePortfolio{
		pending:   []bgdomain.Company{company("c1", "a.com")},
		upsertErr: map[string]error{"c1": perr.Unavailablef("deadlock")},
	}
	p := &fakePipeline{asm: map[string]discdomain.Assembly{"c1": assemblyFor("c1")}}
	s, _ := testOrch(t, p, pf, &fakeReporter{}, Options{MaxCycles: 4})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Phase != PhaseConverged {
		t.Fatalf("phase = %s, want converged", report.Phase)
	}
	if report.Cycles != 2 {
		t.Fatalf("cycles = %d, want 2", report.Cycles)
	}
	if report.Fixed != 1 || report.Failed != 0 {
		t.Fatalf("counts = fixed %d failed %d", report.Fixed, report.Failed)
	}
	if report.Companies[0].Status != StatusComplete {
		t.Fatalf("status = %s", report.Companies[0].Status)
	}
}

func TestAuditWritesRejections(t *testing.T) {
	pf := &fakePortfolio{audit: bgservice.AuditReport{
		Checked: 4,
		Removed: 1,
		Rejections: []discdomain.Rejection{
			{FullName: "Olga Novak", Reason: "email domain mismatch: underline.cz != underline.com"},
		},
	}}
	rep := &fakeReporter{}
	s, _ := testOrch(t, &fakePipeline{}, pf, rep, Options{})

	report, err := s.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if report.Removed != 1 {
		t.Fatalf("removed = %d", report.Removed)
	}
	if len(rep.rejections) != 1 || rep.rejections[0].FullName != "Olga Novak" {
		t.Fatalf("rejections = %+v", rep.rejections)
	}
}

func TestRunTagsContextWithRunAndWorkspace(t *testing.T) {
	pf := &fakePortfolio{pending: []bgdomain.Company{company("c1", "a.com")}}
	p := &fakePipeline{asm: map[string]discdomain.Assembly{"c1": assemblyFor("c1")}}
	s, _ := testOrch(t, p, pf, &fakeReporter{}, Options{})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.runIDs) != 1 || p.runIDs[0] != report.RunID {
		t.Fatalf("pipeline saw run ids %v, want [%s]", p.runIDs, report.RunID)
	}
	if len(p.workspaces) != 1 || p.workspaces[0] != "ws-test" {
		t.Fatalf("pipeline saw workspaces %v, want [ws-test]", p.workspaces)
	}
}

func TestRunReportListsCompaniesInIDOrder(t *testing.T) {
	pending := []bgdomain.Company{company("c3", "c.com"), company("c1", "a.com"), company("c2", "b.com")}
	pf := &fakePortfolio{pending: pending}
	p := &fakePipeline{asm: map[string]discdomain.Assembly{
		"c1": assemblyFor("c1"),
		"c2": assemblyFor("c2"),
		"c3": assemblyFor("c3"),
	}}
	s, _ := testOrch(t, p, pf, &fakeReporter{}, Options{})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Companies) != 3 {
		t.Fatalf("companies = %d, want 3", len(report.Companies))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if report.Companies[i].CompanyID != want {
			t.Fatalf("companies[%d] = %s, want %s", i, report.Companies[i].CompanyID, want)
		}
	}
}
