package flows

import "context"

// Outcome tags one classified API exchange as seen by the retry machines.
type Outcome int

const (
	// OutcomeSuccess means the exchange carried no recognized error.
	OutcomeSuccess Outcome = iota
	// OutcomeBadToken means the server rejected the action token.
	OutcomeBadToken
	// OutcomeAssertUserFailed means the session identity assertion failed.
	OutcomeAssertUserFailed
	// OutcomeAPIError means the server reported a business error.
	OutcomeAPIError
	// OutcomeTransport means the exchange failed below the API layer.
	OutcomeTransport
)

// TokenDeps captures the token-gated request flow dependencies.
type TokenDeps[T any] struct {
	// FetchToken returns the token to attach. force demands a real refetch:
	// the cached value must not be reused even if still present.
	FetchToken func(ctx context.Context, force bool) (string, error)
	// Invalidate drops the cached token after a bad-token rejection.
	Invalidate func(ctx context.Context) error
	// Post performs the gated request with the token attached and returns
	// the classified result. err carries the typed error for any
	// non-success outcome.
	Post func(ctx context.Context, token string) (T, Outcome, error)
	// Exhausted builds the typed retry-exhaustion error; lastErr is the most
	// recent bad-token rejection, or nil when the budget was zero upfront.
	Exhausted func(lastErr error) error
	// OnRetry is called once per bad-token retry. Optional.
	OnRetry func()
}

// RunPostWithToken drives one token-gated request to completion:
//
//	fetch token -> post -> classify -> (done | invalidate + forced retry)
//
// The budget check runs before any work on every attempt, so a non-positive
// retryLimit fails without touching the network. A bad-token rejection always
// invalidates before retrying and forces a refetch on the next attempt; the
// stale value is never replayed. Business and transport failures propagate
// immediately, they never consume the retry budget.
func RunPostWithToken[T any](ctx context.Context, retryLimit int, forceRefresh bool, deps TokenDeps[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		if retryLimit-attempt < 1 {
			return zero, deps.Exhausted(lastErr)
		}

		force := forceRefresh || attempt > 0
		token, err := deps.FetchToken(ctx, force)
		if err != nil {
			return zero, err
		}

		result, outcome, err := deps.Post(ctx, token)
		switch outcome {
		case OutcomeSuccess:
			return result, nil
		case OutcomeBadToken:
			if invErr := deps.Invalidate(ctx); invErr != nil {
				return zero, invErr
			}
			lastErr = err
			if deps.OnRetry != nil {
				deps.OnRetry()
			}
		default:
			return zero, err
		}
	}
}
