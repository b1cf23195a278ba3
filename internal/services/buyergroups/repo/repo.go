// Package repo provides Postgres bindings for domain.Repo
package repo

import (
	"context"
	"encoding/json"

	"quorum/internal/modkit/repokit"
	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/store"
	"quorum/internal/services/buyergroups/domain"
)

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// Compile-time assertion: queries implements domain.Repo
var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

// CompaniesNeedingGroups is the orchestrator's scan query: companies with
// zero non-deleted buyer-group members
func (r *queries) CompaniesNeedingGroups(ctx context.Context, workspaceID string, limit int) ([]domain.Company, error) {
	const sql = `
		SELECT c.id, c.workspace_id, c.name,
		       COALESCE(c.domain, ''), COALESCE(c.network_url, ''),
		       COALESCE(c.industry, ''), COALESCE(c.size_band, '')
		FROM companies c
		WHERE c.workspace_id = $1
		  AND c.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1
			FROM buyer_groups g
			JOIN buyer_group_members m ON m.buyer_group_id = g.id
			WHERE g.company_id = c.id AND g.deleted_at IS NULL
		  )
		ORDER BY c.created_at ASC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, sql, workspaceID, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "companies needing groups")
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.NetworkURL, &c.Industry, &c.SizeBand); err != nil {
			return nil, perr.FromPostgresf(err, "companies needing groups: scan")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MajorityEmailDomain picks the most common email domain among a company's
// people, used to backfill a missing target domain
func (r *queries) MajorityEmailDomain(ctx context.Context, companyID string) (string, error) {
	const sql = `
		SELECT split_part(email, '@', 2) AS d
		FROM people
		WHERE company_id = $1 AND email <> '' AND position('@' IN email) > 0
		GROUP BY d
		ORDER BY COUNT(*) DESC, d ASC
		LIMIT 1
	`
	d, err := store.Scalar[string](ctx, r.q, sql, companyID)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", perr.FromPostgresf(err, "majority email domain")
	}
	return d, nil
}

// SetCompanyDomain backfills a derived domain; an existing value wins
func (r *queries) SetCompanyDomain(ctx context.Context, companyID, dom string) error {
	const sql = `
		UPDATE companies
		SET domain = $2, updated_at = NOW()
		WHERE id = $1 AND (domain IS NULL OR domain = '')
	`
	if _, err := r.q.Exec(ctx, sql, companyID, dom); err != nil {
		return perr.FromPostgresf(err, "set company domain")
	}
	return nil
}

// MatchPerson resolves a candidate to an existing person by folded name or
// network URL within the company, earliest row first
func (r *queries) MatchPerson(ctx context.Context, workspaceID, companyID, foldedName, networkURL string) (*domain.Person, error) {
	const sql = `
		SELECT id, workspace_id, company_id, full_name,
		       COALESCE(title, ''), COALESCE(department, ''), COALESCE(network_url, ''),
		       COALESCE(email, ''), COALESCE(email_status, ''), COALESCE(email_confidence, 0),
		       COALESCE(role, ''), COALESCE(role_confidence, 0),
		       created_at, updated_at
		FROM people
		WHERE workspace_id = $1 AND company_id = $2
		  AND (
			full_name_folded = $3
			OR ($4 <> '' AND network_url = $4)
		  )
		ORDER BY created_at ASC
		LIMIT 1
	`
	var p domain.Person
	err := r.q.QueryRow(ctx, sql, workspaceID, companyID, foldedName, networkURL).Scan(
		&p.ID, &p.WorkspaceID, &p.CompanyID, &p.FullName,
		&p.Title, &p.Department, &p.NetworkURL,
		&p.Email, &p.EmailStatus, &p.EmailConfidence,
		&p.Role, &p.RoleConfidence,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, perr.FromPostgresf(err, "match person")
	}
	return &p, nil
}

// UpsertPerson overwrites role and email fields to the latest computed
// values; re-running with identical input changes nothing but updated_at
func (r *queries) UpsertPerson(ctx context.Context, p domain.Person) error {
	const sql = `
		INSERT INTO people (
			id, workspace_id, company_id, full_name, full_name_folded,
			title, department, network_url,
			email, email_status, email_confidence,
			role, role_confidence, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET title            = EXCLUDED.title,
		    department       = EXCLUDED.department,
		    network_url      = EXCLUDED.network_url,
		    email            = EXCLUDED.email,
		    email_status     = EXCLUDED.email_status,
		    email_confidence = EXCLUDED.email_confidence,
		    role             = EXCLUDED.role,
		    role_confidence  = EXCLUDED.role_confidence,
		    updated_at       = NOW()
	`
	_, err := r.q.Exec(ctx, sql,
		p.ID, p.WorkspaceID, p.CompanyID, p.FullName, foldName(p.FullName),
		p.Title, p.Department, p.NetworkURL,
		p.Email, p.EmailStatus, p.EmailConfidence,
		string(p.Role), p.RoleConfidence,
	)
	if err != nil {
		return perr.FromPostgresf(err, "upsert person")
	}
	return nil
}

// UpsertGroup holds the one-group-per-company invariant through a partial
// unique index; conflicts update in place and report created = false
func (r *queries) UpsertGroup(ctx context.Context, g domain.BuyerGroup) (string, bool, error) {
	dist, err := json.Marshal(g.Distribution)
	if err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeJSON, "upsert group: marshal distribution")
	}
	const sql = `
		INSERT INTO buyer_groups (
			id, workspace_id, company_id, status, priority, methodology,
			distribution, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (workspace_id, company_id) WHERE deleted_at IS NULL
		DO UPDATE
		SET status       = EXCLUDED.status,
		    priority     = EXCLUDED.priority,
		    methodology  = EXCLUDED.methodology,
		    distribution = EXCLUDED.distribution,
		    updated_at   = NOW()
		RETURNING id, (xmax = 0) AS created
	`
	var id string
	var created bool
	if err := r.q.QueryRow(ctx, sql,
		g.ID, g.WorkspaceID, g.CompanyID, g.Status, g.Priority, g.Methodology, dist,
	).Scan(&id, &created); err != nil {
		return "", false, perr.FromPostgresf(err, "upsert group")
	}
	return id, created, nil
}

// MergeDuplicateGroups folds any stray duplicate groups into the earliest
// row. Duplicates should be impossible under the partial unique index, so
// any non-zero result is an anomaly
func (r *queries) MergeDuplicateGroups(ctx context.Context, workspaceID, companyID string) (int, error) {
	const move = `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at ASC) AS rn
			FROM buyer_groups
			WHERE workspace_id = $1 AND company_id = $2 AND deleted_at IS NULL
		)
		UPDATE buyer_group_members m
		SET buyer_group_id = (SELECT id FROM ranked WHERE rn = 1)
		WHERE m.buyer_group_id IN (SELECT id FROM ranked WHERE rn > 1)
		  AND NOT EXISTS (
			SELECT 1 FROM buyer_group_members k
			WHERE k.buyer_group_id = (SELECT id FROM ranked WHERE rn = 1)
			  AND k.person_id = m.person_id
		  )
	`
	if _, err := r.q.Exec(ctx, move, workspaceID, companyID); err != nil {
		return 0, perr.FromPostgresf(err, "merge duplicate groups: move members")
	}

	const dropLeftovers = `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at ASC) AS rn
			FROM buyer_groups
			WHERE workspace_id = $1 AND company_id = $2 AND deleted_at IS NULL
		)
		DELETE FROM buyer_group_members
		WHERE buyer_group_id IN (SELECT id FROM ranked WHERE rn > 1)
	`
	if _, err := r.q.Exec(ctx, dropLeftovers, workspaceID, companyID); err != nil {
		return 0, perr.FromPostgresf(err, "merge duplicate groups: drop leftovers")
	}

	const retire = `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at ASC) AS rn
			FROM buyer_groups
			WHERE workspace_id = $1 AND company_id = $2 AND deleted_at IS NULL
		)
		UPDATE buyer_groups
		SET deleted_at = NOW()
		WHERE id IN (SELECT id FROM ranked WHERE rn > 1)
	`
	tag, err := r.q.Exec(ctx, retire, workspaceID, companyID)
	if err != nil {
		return 0, perr.FromPostgresf(err, "merge duplicate groups: retire")
	}
	return int(tag.RowsAffected()), nil
}

// UpsertMember writes the link row by its natural key
func (r *queries) UpsertMember(ctx context.Context, m domain.BuyerGroupMember) error {
	const sql = `
		INSERT INTO buyer_group_members (
			buyer_group_id, person_id, role, influence_tier, is_primary,
			role_confidence, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (buyer_group_id, person_id) DO UPDATE
		SET role            = EXCLUDED.role,
		    influence_tier  = EXCLUDED.influence_tier,
		    is_primary      = EXCLUDED.is_primary,
		    role_confidence = EXCLUDED.role_confidence,
		    updated_at      = NOW()
	`
	_, err := r.q.Exec(ctx, sql,
		m.GroupID, m.PersonID, string(m.Role), m.InfluenceTier, m.IsPrimary, m.RoleConfidence,
	)
	if err != nil {
		return perr.FromPostgresf(err, "upsert member")
	}
	return nil
}

// ClearPrimary resets the primary flag ahead of re-asserting it
func (r *queries) ClearPrimary(ctx context.Context, groupID string) error {
	const sql = `UPDATE buyer_group_members SET is_primary = FALSE WHERE buyer_group_id = $1 AND is_primary`
	if _, err := r.q.Exec(ctx, sql, groupID); err != nil {
		return perr.FromPostgresf(err, "clear primary")
	}
	return nil
}

// RemoveMember deletes one member link
func (r *queries) RemoveMember(ctx context.Context, groupID, personID string) error {
	const sql = `DELETE FROM buyer_group_members WHERE buyer_group_id = $1 AND person_id = $2`
	if _, err := r.q.Exec(ctx, sql, groupID, personID); err != nil {
		return perr.FromPostgresf(err, "remove member")
	}
	return nil
}
