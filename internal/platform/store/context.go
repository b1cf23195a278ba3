package store

import "context"

type (
	workspaceKey struct{}
	runIDKey     struct{}
)

// WithWorkspace attaches a workspace id to the context
func WithWorkspace(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceKey{}, workspaceID)
}

// WorkspaceID retrieves a workspace id from context if present
func WorkspaceID(ctx context.Context) (string, bool) {
	v := ctx.Value(workspaceKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// WithRunID attaches a run id to the context
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID retrieves a run id from context if present
func RunID(ctx context.Context) (string, bool) {
	v := ctx.Value(runIDKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// RunInWorkspace wraps ctx with the workspace and calls fn inside the provided TxRunner
func RunInWorkspace(
	ctx context.Context,
	tx TxRunner,
	workspaceID string,
	fn func(ctx context.Context, q RowQuerier) error,
) error {
	ctx = WithWorkspace(ctx, workspaceID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
