package flows

import "context"

// ReloginDeps captures the assert-user recovery dependencies.
type ReloginDeps[T any] struct {
	// ConsumeBudget atomically takes one relogin attempt from the lifetime
	// budget. It returns false when auto-relogin is disabled or exhausted.
	ConsumeBudget func() bool
	// Relogin re-runs the remembered login.
	Relogin func(ctx context.Context) error
	// Retry replays the original request once against the fresh session.
	Retry func(ctx context.Context) (T, error)
}

// RunAssertRecovery handles one assert-user failure: at most one re-login
// followed by exactly one replay of the original request. recovered=false
// means the caller must surface the original failure — either the budget was
// spent, recovery is disabled, or the re-login itself failed. The machine
// never loops: whatever the replay yields is final.
func RunAssertRecovery[T any](ctx context.Context, deps ReloginDeps[T]) (result T, recovered bool, err error) {
	var zero T
	if !deps.ConsumeBudget() {
		return zero, false, nil
	}
	if err := deps.Relogin(ctx); err != nil {
		return zero, false, nil
	}
	result, err = deps.Retry(ctx)
	return result, true, err
}
