package mwapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wikisaikou/mwapi/internal/flows"
	"github.com/wikisaikou/mwapi/internal/params"
	"github.com/wikisaikou/mwapi/tokenstore"
)

// Client talks to one MediaWiki Action API endpoint. It owns the token
// cache, the login session state, and the cookie jar; instances are
// independent and safe for concurrent use. Construct through New or
// NewClient.
type Client struct {
	config  Config
	http    *http.Client
	baseURL *url.URL
	store   tokenstore.Store
	metrics *Metrics

	sessionMu sync.Mutex
	session   *loginSession

	kindMuMu sync.Mutex
	kindMu   map[tokenstore.Kind]*refreshLock
}

// refreshLock serializes token refresh per kind, so overlapping calls cannot
// invalidate each other's freshly fetched token.
type refreshLock struct {
	sync.Mutex
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.DefaultParams = cloneParams(cfg.DefaultParams)
	cfg.DefaultHeaders = cloneHeader(cfg.DefaultHeaders)
	return cfg
}

// TokenStore exposes the client's token cache.
func (c *Client) TokenStore() tokenstore.Store { return c.store }

type requestOptions struct {
	headers http.Header

	// assertRetry marks the single post-relogin replay; it must never
	// trigger another recovery round.
	assertRetry bool
}

// RequestOption adjusts one Get/Post call.
type RequestOption func(*requestOptions)

// WithRequestHeader adds a header to one request.
func WithRequestHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

func buildRequestOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Get issues a read request. query is merged over the default parameters,
// per-call values winning.
func (c *Client) Get(ctx context.Context, query Params, opts ...RequestOption) (*Response, error) {
	merged := params.Merge(c.config.DefaultParams, query)
	return c.do(ctx, http.MethodGet, merged, nil, buildRequestOptions(opts))
}

// Post issues a write request with a form-encoded body. The default
// parameters ride in the query string, minus any key the body also carries.
func (c *Client) Post(ctx context.Context, body Params, opts ...RequestOption) (*Response, error) {
	query := Params{}
	for k, v := range c.config.DefaultParams {
		if _, dup := body[k]; !dup {
			query[k] = v
		}
	}
	return c.do(ctx, http.MethodPost, query, body, buildRequestOptions(opts))
}

func (c *Client) do(ctx context.Context, method string, query, body Params, o requestOptions) (*Response, error) {
	query, body = c.injectAssertUser(query, body)

	resp, err := c.exchange(ctx, method, query, body, o)
	if err != nil {
		return nil, err
	}

	oc, apiErr := classifyResponse(resp)

	if oc == outcomeAssertUserFailed && !o.assertRetry && hasAssertParam(query, body) {
		replay, recovered, rerr := flows.RunAssertRecovery(ctx, flows.ReloginDeps[*Response]{
			ConsumeBudget: c.consumeReloginBudget,
			Relogin:       c.relogin,
			Retry: func(ctx context.Context) (*Response, error) {
				retry := o
				retry.assertRetry = true
				return c.do(ctx, method, query, body, retry)
			},
		})
		if recovered {
			return replay, rerr
		}
		// Budget spent, recovery disabled, or relogin failed: the original
		// assert failure is what the caller must see.
	}

	if apiErr != nil && c.config.ThrowOnAPIError {
		return resp, apiErr
	}
	return resp, nil
}

// exchange performs one raw HTTP round trip and decodes the API envelope.
func (c *Client) exchange(ctx context.Context, method string, query, body Params, o requestOptions) (*Response, error) {
	c.metrics.inc(MetricRequests)

	if c.config.OAuthToken != "" {
		if err := checkOAuthToken(c.config.OAuthToken, timeNow()); err != nil {
			return nil, err
		}
	}

	target := *c.baseURL
	target.RawQuery = params.Normalize(query).Encode()

	var reader io.Reader
	if method == http.MethodPost {
		reader = strings.NewReader(params.Normalize(body).Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, &TransportError{cause: err}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for key, vals := range c.config.DefaultHeaders {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Api-User-Agent", c.config.UserAgent)
	}
	if c.config.OAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.OAuthToken)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	for key, vals := range o.headers {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		c.metrics.inc(MetricTransportFailures)
		return nil, &TransportError{cause: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.inc(MetricTransportFailures)
		return nil, &TransportError{Status: httpResp.StatusCode, cause: err}
	}

	resp, err := newResponse(httpResp.StatusCode, httpResp.Header, raw)
	if err != nil {
		c.metrics.inc(MetricTransportFailures)
		return nil, &TransportError{
			Status: httpResp.StatusCode,
			cause:  fmt.Errorf("response is not a MediaWiki API payload: %w", err),
		}
	}

	// A failing status with no embedded API error is a transport problem,
	// not a business error.
	if httpResp.StatusCode >= 400 && len(resp.Errors()) == 0 && resp.Login() == nil {
		c.metrics.inc(MetricTransportFailures)
		return nil, &TransportError{Status: httpResp.StatusCode}
	}

	return resp, nil
}

// injectAssertUser tags outgoing requests with assertuser=<name> while a
// kept-alive session is armed, so a silently dropped session surfaces as an
// assert failure instead of an anonymous edit. Login traffic and requests
// that already assert a user are left alone.
func (c *Client) injectAssertUser(query, body Params) (Params, Params) {
	name, armed := c.assertUser()
	if !armed {
		return query, body
	}
	if isLoginTraffic(query, body) || hasAssertParam(query, body) {
		return query, body
	}
	if body != nil {
		body = params.Merge(body, Params{"assertuser": name})
	} else {
		query = params.Merge(query, Params{"assertuser": name})
	}
	return query, body
}

func hasAssertParam(query, body Params) bool {
	_, q := query["assertuser"]
	_, b := body["assertuser"]
	return q || b
}

// isLoginTraffic reports whether the request is an action=login call or a
// login-token fetch. Both must bypass assertion and relogin recovery, or a
// broken session could never be re-established.
func isLoginTraffic(query, body Params) bool {
	return isLoginAction(query) || isLoginAction(body) ||
		isLoginTokenFetch(query) || isLoginTokenFetch(body)
}

func isLoginAction(p Params) bool {
	action, _ := p["action"].(string)
	return action == "login"
}

func isLoginTokenFetch(p Params) bool {
	action, _ := p["action"].(string)
	if action != "query" {
		return false
	}
	if !paramListContains(p["meta"], "tokens") {
		return false
	}
	return paramListContains(p["type"], "login")
}

// paramListContains handles both representations of multi-values: native
// slices and already pipe-joined strings.
func paramListContains(value any, want string) bool {
	switch v := value.(type) {
	case string:
		for _, item := range strings.Split(v, "|") {
			if strings.TrimSpace(item) == want {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}
