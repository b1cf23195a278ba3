// Package guardrails keeps concurrent discover runs from stepping on the
// same workspace
package guardrails

import (
	"context"
	"fmt"
	"os"
	"time"

	"quorum/internal/modkit"
	"quorum/internal/platform/store"
)

// ErrLeaseHeld signals another process owns the workspace already
var ErrLeaseHeld = fmt.Errorf("orchestrator: workspace lease already held")

// MakeRunLease claims a row in workspace_leases before running do.
// Stale leases are reclaimed through expires_at, so a crashed run never
// wedges its workspace
func MakeRunLease(
	deps modkit.Deps,
	owner string,
	ttl time.Duration,
) func(ctx context.Context, workspaceID string, do func(context.Context) error) error {
	owner = fmt.Sprintf("%s:%d", owner, os.Getpid())

	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	toInterval := func(d time.Duration) string { return fmt.Sprintf("%d seconds", int64(d/time.Second)) }

	return func(ctx context.Context, workspaceID string, do func(context.Context) error) error {
		var claimed bool
		if err := deps.PG.Tx(ctx, func(q store.RowQuerier) error {
			row := q.QueryRow(ctx, `
				INSERT INTO workspace_leases (workspace_id, owner, claimed_at, expires_at)
				VALUES ($1, $2, now(), now() + ($3)::interval)
				ON CONFLICT (workspace_id) DO UPDATE
				   SET owner = EXCLUDED.owner,
				       claimed_at = now(),
				       expires_at = now() + ($3)::interval
				 WHERE workspace_leases.expires_at <= now()
				RETURNING true
			`, workspaceID, owner, toInterval(ttl))
			var ok bool
			if err := row.Scan(&ok); err != nil {
				return nil // no row means another owner still holds it
			}
			claimed = ok
			return nil
		}); err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}

		defer func() {
			// release eagerly so back-to-back runs do not wait out the ttl
			_, _ = deps.PG.Exec(context.WithoutCancel(ctx), `
				DELETE FROM workspace_leases
				 WHERE workspace_id = $1 AND owner = $2
			`, workspaceID, owner)
		}()

		return do(ctx)
	}
}
