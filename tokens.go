package mwapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/wikisaikou/mwapi/internal/flows"
	"github.com/wikisaikou/mwapi/tokenstore"
)

// defaultTokenRetryLimit is the total token-fetch budget per PostWithToken
// call: the initial fetch plus forced refetches after badtoken rejects.
const defaultTokenRetryLimit = 3

type tokenOptions struct {
	retryLimit   int
	tokenField   string
	forceRefresh bool
}

// TokenOption adjusts one token-gated call.
type TokenOption func(*tokenOptions)

// WithRetryLimit caps the total token fetches for the call. Zero or negative
// fails the call before any network work.
func WithRetryLimit(n int) TokenOption {
	return func(o *tokenOptions) { o.retryLimit = n }
}

// WithTokenField renames the body field carrying the token. The default is
// "token"; action=login wants "lgtoken".
func WithTokenField(name string) TokenOption {
	return func(o *tokenOptions) { o.tokenField = name }
}

// WithForceRefresh bypasses the cache on the first attempt.
func WithForceRefresh() TokenOption {
	return func(o *tokenOptions) { o.forceRefresh = true }
}

func buildTokenOptions(opts []TokenOption) tokenOptions {
	o := tokenOptions{retryLimit: defaultTokenRetryLimit, tokenField: "token"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// kindLock returns the refresh mutex for one token kind. Refresh is
// serialized per kind, not per client: a csrf refresh that triggers a relogin
// must still be able to fetch a login token.
func (c *Client) kindLock(kind tokenstore.Kind) *refreshLock {
	c.kindMuMu.Lock()
	defer c.kindMuMu.Unlock()
	lock, ok := c.kindMu[kind]
	if !ok {
		lock = &refreshLock{}
		c.kindMu[kind] = lock
	}
	return lock
}

// FetchTokens requests fresh tokens of the given kinds in one round trip and
// caches every kind the server returned, which can be more than asked for.
func (c *Client) FetchTokens(ctx context.Context, kinds ...tokenstore.Kind) error {
	if len(kinds) == 0 {
		kinds = []tokenstore.Kind{tokenstore.KindCSRF}
	}
	types := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidTokenKind, kind)
		}
		types = append(types, string(kind))
	}

	resp, err := c.Get(ctx, Params{
		"action": "query",
		"meta":   "tokens",
		"type":   types,
	})
	if err != nil {
		return err
	}
	if _, apiErr := classifyResponse(resp); apiErr != nil {
		return apiErr
	}
	c.metrics.inc(MetricTokenFetches)

	tokens := resp.Tokens()
	if len(tokens) == 0 {
		return fmt.Errorf("mwapi: token response carried no tokens")
	}
	for name, value := range tokens {
		kind := tokenstore.Kind(strings.TrimSuffix(name, "token"))
		if !kind.Valid() {
			continue
		}
		if err := c.store.Set(ctx, kind, value); err != nil {
			return err
		}
	}
	return nil
}

// Token returns a token of the given kind, fetching on a cache miss.
func (c *Client) Token(ctx context.Context, kind tokenstore.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenKind, kind)
	}
	return c.token(ctx, kind, false)
}

// BadToken reports a token of the given kind as rejected and drops it from
// the cache, so the next fetch goes to the server.
func (c *Client) BadToken(ctx context.Context, kind tokenstore.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTokenKind, kind)
	}
	return c.store.Invalidate(ctx, kind)
}

// token resolves one token under the kind's refresh lock. force skips the
// cache read so a known-stale value is never replayed.
func (c *Client) token(ctx context.Context, kind tokenstore.Kind, force bool) (string, error) {
	lock := c.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()

	if !force {
		if value, ok, err := c.store.Get(ctx, kind); err != nil {
			return "", err
		} else if ok {
			return value, nil
		}
	} else if err := c.store.Invalidate(ctx, kind); err != nil {
		return "", err
	}

	if err := c.FetchTokens(ctx, kind); err != nil {
		return "", err
	}
	value, ok, err := c.store.Get(ctx, kind)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("mwapi: server returned no %q token", kind)
	}
	return value, nil
}

// PostWithToken performs a token-gated POST. It attaches a token of the given
// kind, classifies the result, and on a badtoken reject invalidates and
// retries with a forced refetch until the retry limit is spent. Business and
// transport failures propagate immediately without consuming the budget.
func (c *Client) PostWithToken(ctx context.Context, kind tokenstore.Kind, body Params, opts ...TokenOption) (*Response, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenKind, kind)
	}
	o := buildTokenOptions(opts)

	return flows.RunPostWithToken(ctx, o.retryLimit, o.forceRefresh, flows.TokenDeps[*Response]{
		FetchToken: func(ctx context.Context, force bool) (string, error) {
			return c.token(ctx, kind, force)
		},
		Invalidate: func(ctx context.Context) error {
			return c.store.Invalidate(ctx, kind)
		},
		Post: func(ctx context.Context, token string) (*Response, flows.Outcome, error) {
			merged := Params{o.tokenField: token}
			for k, v := range body {
				merged[k] = v
			}
			resp, err := c.Post(ctx, merged)
			if err != nil {
				return resp, flowOutcome(classifyError(err)), err
			}
			oc, apiErr := classifyResponse(resp)
			if oc == outcomeSuccess {
				return resp, flows.OutcomeSuccess, nil
			}
			return resp, flowOutcome(oc), apiErr
		},
		Exhausted: func(lastErr error) error {
			c.metrics.inc(MetricTokenRetryExhausted)
			return &RetryExhaustedError{Kind: kind, cause: lastErr}
		},
		OnRetry: func() {
			c.metrics.inc(MetricBadTokenRetries)
		},
	})
}

// PostWithEditToken is PostWithToken with the csrf kind, which gates edits
// and most other state-changing actions.
func (c *Client) PostWithEditToken(ctx context.Context, body Params, opts ...TokenOption) (*Response, error) {
	return c.PostWithToken(ctx, tokenstore.KindCSRF, body, opts...)
}

func flowOutcome(oc outcome) flows.Outcome {
	switch oc {
	case outcomeSuccess:
		return flows.OutcomeSuccess
	case outcomeBadToken:
		return flows.OutcomeBadToken
	case outcomeAssertUserFailed:
		return flows.OutcomeAssertUserFailed
	case outcomeAPIError:
		return flows.OutcomeAPIError
	default:
		return flows.OutcomeTransport
	}
}
