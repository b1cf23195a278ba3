package runlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum/internal/platform/store"
	"quorum/internal/services/discovery/domain"
)

type fakeCH struct {
	inserts map[string][][]any
	err     error
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	if f.err != nil {
		return f.err
	}
	if f.inserts == nil {
		f.inserts = map[string][][]any{}
	}
	f.inserts[table] = append(f.inserts[table], data.([][]any)...)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCH) Close() error { return nil }

func TestWriteRejectionsFlattensRows(t *testing.T) {
	ch := &fakeCH{}
	s := New(ch)
	s.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	s.WriteRejections(context.Background(), "ws1", "c1", []domain.Rejection{
		{FullName: "Olga Lev", Reason: "email domain mismatch: underline.cz != underline.com",
			CandidateDomain: "underline.cz", TargetDomain: "underline.com"},
	})

	rows := ch.inserts[rejectionsTable]
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][2] != "Olga Lev" || rows[0][4] != "underline.cz" {
		t.Fatalf("row = %v", rows[0])
	}
}

func TestWriteRejectionsNeverFails(t *testing.T) {
	// nil backend and erroring backend both drop silently
	New(nil).WriteRejections(context.Background(), "ws1", "c1", []domain.Rejection{{FullName: "X"}})

	s := New(&fakeCH{err: errors.New("ch down")})
	s.WriteRejections(context.Background(), "ws1", "c1", []domain.Rejection{{FullName: "X"}})
}

func TestWriteReport(t *testing.T) {
	ch := &fakeCH{}
	s := New(ch)

	s.WriteReport(context.Background(), Report{
		RunID: "r1", WorkspaceID: "ws1", Phase: "converged",
		Cycles: 3, Scanned: 10, Fixed: 8, NeedsReview: 2,
	})

	rows := ch.inserts[reportsTable]
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][0] != "r1" || rows[0][2] != "converged" {
		t.Fatalf("row = %v", rows[0])
	}
}
