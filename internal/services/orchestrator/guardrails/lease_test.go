package guardrails

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum/internal/modkit"
	"quorum/internal/platform/store"
)

type scanRow struct {
	ok  bool
	err error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if b, is := dest[0].(*bool); is {
		*b = r.ok
	}
	return nil
}

// leaseDB answers the claim upsert with a canned row and records releases
type leaseDB struct {
	row      scanRow
	releases int
}

func (d *leaseDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	d.releases++
	return nil, nil
}
func (d *leaseDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (d *leaseDB) QueryRow(context.Context, string, ...any) store.Row        { return d.row }
func (d *leaseDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(d)
}

func TestLeaseClaimedRunsAndReleases(t *testing.T) {
	db := &leaseDB{row: scanRow{ok: true}}
	lease := MakeRunLease(modkit.Deps{PG: db}, "test", time.Minute)

	ran := false
	err := lease(context.Background(), "ws-1", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("lease: %v", err)
	}
	if !ran {
		t.Fatal("do never ran")
	}
	if db.releases != 1 {
		t.Fatalf("releases = %d, want 1", db.releases)
	}
}

func TestLeaseHeldByAnotherOwner(t *testing.T) {
	// no row back from the claim means the upsert's WHERE filtered it out
	db := &leaseDB{row: scanRow{err: errors.New("no rows in result set")}}
	lease := MakeRunLease(modkit.Deps{PG: db}, "test", time.Minute)

	err := lease(context.Background(), "ws-1", func(context.Context) error {
		t.Fatal("do must not run while the lease is held")
		return nil
	})
	if !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("err = %v, want ErrLeaseHeld", err)
	}
	if db.releases != 0 {
		t.Fatalf("releases = %d, want 0", db.releases)
	}
}

func TestLeasePropagatesDoError(t *testing.T) {
	db := &leaseDB{row: scanRow{ok: true}}
	lease := MakeRunLease(modkit.Deps{PG: db}, "test", time.Minute)

	boom := errors.New("boom")
	err := lease(context.Background(), "ws-1", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if db.releases != 1 {
		t.Fatal("lease must release even when do fails")
	}
}
