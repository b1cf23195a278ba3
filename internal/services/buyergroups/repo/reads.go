package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"quorum/internal/core/roles"
	"quorum/internal/core/textnorm"
	perr "quorum/internal/platform/errors"
	"quorum/internal/platform/store"
	"quorum/internal/services/buyergroups/domain"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, store.ErrNoRows)
}

func foldName(name string) string { return textnorm.Fold(name) }

// scanGroup maps one buyer_groups row, decoding the distribution json
func scanGroup(row store.Row) (domain.BuyerGroup, error) {
	var g domain.BuyerGroup
	var dist []byte
	if err := row.Scan(
		&g.ID, &g.WorkspaceID, &g.CompanyID, &g.Status, &g.Priority, &g.Methodology,
		&dist, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return g, err
	}
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &g.Distribution); err != nil {
			return g, perr.Wrapf(err, perr.ErrorCodeJSON, "group distribution")
		}
	}
	return g, nil
}

// GroupByCompany reads the company's non-deleted group and its members
func (r *queries) GroupByCompany(ctx context.Context, workspaceID, companyID string) (*domain.GroupView, error) {
	const groupSQL = `
		SELECT id, workspace_id, company_id, status, priority, methodology,
		       distribution, created_at, updated_at
		FROM buyer_groups
		WHERE workspace_id = $1 AND company_id = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`
	g, err := store.One(ctx, r.q, scanGroup, groupSQL, workspaceID, companyID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, perr.FromPostgresf(err, "group by company")
	}

	const membersSQL = `
		SELECT p.id, p.workspace_id, p.company_id, p.full_name,
		       COALESCE(p.title, ''), COALESCE(p.department, ''), COALESCE(p.network_url, ''),
		       COALESCE(p.email, ''), COALESCE(p.email_status, ''), COALESCE(p.email_confidence, 0),
		       COALESCE(m.role, ''), COALESCE(m.role_confidence, 0),
		       p.created_at, p.updated_at
		FROM buyer_group_members m
		JOIN people p ON p.id = m.person_id
		WHERE m.buyer_group_id = $1
		ORDER BY m.is_primary DESC, m.role_confidence DESC, p.full_name ASC
	`
	rows, err := r.q.Query(ctx, membersSQL, g.ID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "group by company: members")
	}
	defer rows.Close()

	view := &domain.GroupView{Group: g}
	for rows.Next() {
		var p domain.Person
		var role string
		if err := rows.Scan(
			&p.ID, &p.WorkspaceID, &p.CompanyID, &p.FullName,
			&p.Title, &p.Department, &p.NetworkURL,
			&p.Email, &p.EmailStatus, &p.EmailConfidence,
			&role, &p.RoleConfidence,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, perr.FromPostgresf(err, "group by company: members scan")
		}
		p.Role = roles.Role(role)
		view.Members = append(view.Members, p)
	}
	return view, rows.Err()
}

// ListRecentGroups lists the workspace's most recently updated groups
func (r *queries) ListRecentGroups(ctx context.Context, workspaceID string, limit int) ([]domain.BuyerGroup, error) {
	const sql = `
		SELECT id, workspace_id, company_id, status, priority, methodology,
		       distribution, created_at, updated_at
		FROM buyer_groups
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT $2
	`
	out, err := store.Many(ctx, r.q, scanGroup, sql, workspaceID, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list recent groups")
	}
	return out, nil
}

// AuditMembers joins every member of every live group with its company
// domain so the audit pass can re-run domain validation
func (r *queries) AuditMembers(ctx context.Context, workspaceID string) ([]domain.AuditMember, error) {
	const sql = `
		SELECT p.id, p.workspace_id, p.company_id, p.full_name,
		       COALESCE(p.email, ''), COALESCE(p.email_status, ''),
		       g.id, COALESCE(c.domain, '')
		FROM buyer_groups g
		JOIN buyer_group_members m ON m.buyer_group_id = g.id
		JOIN people p ON p.id = m.person_id
		JOIN companies c ON c.id = g.company_id
		WHERE g.workspace_id = $1 AND g.deleted_at IS NULL
		ORDER BY g.company_id, p.full_name
	`
	rows, err := r.q.Query(ctx, sql, workspaceID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "audit members")
	}
	defer rows.Close()

	var out []domain.AuditMember
	for rows.Next() {
		var am domain.AuditMember
		if err := rows.Scan(
			&am.ID, &am.WorkspaceID, &am.CompanyID, &am.FullName,
			&am.Email, &am.EmailStatus,
			&am.GroupID, &am.CompanyDomain,
		); err != nil {
			return nil, perr.FromPostgresf(err, "audit members: scan")
		}
		out = append(out, am)
	}
	return out, rows.Err()
}
