//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	_ "embed"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quorum/internal/core/roles"
	"quorum/internal/platform/store"
	"quorum/internal/services/buyergroups/domain"
)

//go:embed schema.sql
var schemaSQL string

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func openRepo(t *testing.T, ctx context.Context, dsn string) (domain.Repo, store.TxRunner) {
	t.Helper()

	s, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}})
	if err != nil {
		t.Fatalf("store open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if _, err := s.PG.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return NewPG().Bind(s.PG), s.PG
}

func seedCompany(t *testing.T, ctx context.Context, q store.RowQuerier, id, ws, name, dom string) {
	t.Helper()
	if _, err := q.Exec(ctx,
		`INSERT INTO companies (id, workspace_id, name, domain) VALUES ($1, $2, $3, NULLIF($4, ''))`,
		id, ws, name, dom,
	); err != nil {
		t.Fatalf("seed company: %v", err)
	}
}

func TestRepoIntegration_UpsertIdempotence(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	r, pg := openRepo(t, ctx, dsn)
	seedCompany(t, ctx, pg, "c1", "ws1", "Underline", "underline.com")

	g := domain.BuyerGroup{
		ID: "g1", WorkspaceID: "ws1", CompanyID: "c1",
		Status: "active", Priority: "standard", Methodology: "website",
		Distribution: map[roles.Role]int{roles.RoleDecisionMaker: 1},
	}

	id1, created1, err := r.UpsertGroup(ctx, g)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created1 {
		t.Fatal("first upsert should create")
	}

	g.ID = "g2" // a fresh id must still collapse onto the existing row
	id2, created2, err := r.UpsertGroup(ctx, g)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created2 || id2 != id1 {
		t.Fatalf("second upsert: created=%v id=%s want existing %s", created2, id2, id1)
	}

	var count int
	if err := pg.QueryRow(ctx,
		`SELECT COUNT(*) FROM buyer_groups WHERE workspace_id='ws1' AND company_id='c1' AND deleted_at IS NULL`,
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("groups = %d, want 1", count)
	}
}

func TestRepoIntegration_PersonMatchAndMemberUpsert(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	r, pg := openRepo(t, ctx, dsn)
	seedCompany(t, ctx, pg, "c1", "ws1", "Underline", "underline.com")

	p := domain.Person{
		ID: "p1", WorkspaceID: "ws1", CompanyID: "c1",
		FullName: "Jane Roe", Title: "CEO",
		Email: "jane@underline.com", EmailStatus: "verified", EmailConfidence: 90,
		Role: roles.RoleDecisionMaker, RoleConfidence: 0.9,
	}
	if err := r.UpsertPerson(ctx, p); err != nil {
		t.Fatalf("upsert person: %v", err)
	}

	got, err := r.MatchPerson(ctx, "ws1", "c1", foldName("JANE ROE"), "")
	if err != nil {
		t.Fatalf("match person: %v", err)
	}
	if got == nil || got.ID != "p1" {
		t.Fatalf("match = %+v", got)
	}

	gid, _, err := r.UpsertGroup(ctx, domain.BuyerGroup{
		ID: "g1", WorkspaceID: "ws1", CompanyID: "c1", Status: "active", Priority: "standard",
	})
	if err != nil {
		t.Fatalf("upsert group: %v", err)
	}

	m := domain.BuyerGroupMember{
		GroupID: gid, PersonID: "p1",
		Role: roles.RoleDecisionMaker, InfluenceTier: "executive", IsPrimary: true, RoleConfidence: 0.9,
	}
	for range 2 {
		if err := r.UpsertMember(ctx, m); err != nil {
			t.Fatalf("upsert member: %v", err)
		}
	}

	var count int
	if err := pg.QueryRow(ctx, `SELECT COUNT(*) FROM buyer_group_members WHERE buyer_group_id=$1`, gid).Scan(&count); err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 1 {
		t.Fatalf("member rows = %d, want 1", count)
	}
}

func TestRepoIntegration_CompaniesNeedingGroupsAndMajorityDomain(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	r, pg := openRepo(t, ctx, dsn)
	seedCompany(t, ctx, pg, "c1", "ws1", "Underline", "")
	seedCompany(t, ctx, pg, "c2", "ws1", "Covered Co", "covered.com")

	// give c2 a group with a member so only c1 needs work
	for _, id := range []string{"p1", "p2", "p3"} {
		email := "x" + id + "@underline.com"
		if id == "p3" {
			email = "odd@elsewhere.net"
		}
		if err := r.UpsertPerson(ctx, domain.Person{
			ID: id, WorkspaceID: "ws1", CompanyID: "c1", FullName: "Person " + id, Email: email,
		}); err != nil {
			t.Fatalf("seed person: %v", err)
		}
	}
	gid, _, err := r.UpsertGroup(ctx, domain.BuyerGroup{
		ID: "g2", WorkspaceID: "ws1", CompanyID: "c2", Status: "active", Priority: "standard",
	})
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	if err := r.UpsertPerson(ctx, domain.Person{ID: "p9", WorkspaceID: "ws1", CompanyID: "c2", FullName: "Covered Carl"}); err != nil {
		t.Fatalf("seed person: %v", err)
	}
	if err := r.UpsertMember(ctx, domain.BuyerGroupMember{
		GroupID: gid, PersonID: "p9", Role: roles.RoleChampion, InfluenceTier: "high",
	}); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	need, err := r.CompaniesNeedingGroups(ctx, "ws1", 10)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(need) != 1 || need[0].ID != "c1" {
		t.Fatalf("need = %+v", need)
	}

	maj, err := r.MajorityEmailDomain(ctx, "c1")
	if err != nil {
		t.Fatalf("majority: %v", err)
	}
	if maj != "underline.com" {
		t.Fatalf("majority = %q", maj)
	}
}
