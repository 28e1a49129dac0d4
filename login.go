package mwapi

import (
	"context"
	"errors"
	"log"
	"net/http/cookiejar"

	"github.com/wikisaikou/mwapi/tokenstore"
)

// defaultMaxReloginAttempts bounds automatic relogins over the client's
// lifetime, not per request. A wiki that keeps dropping the session fails
// loudly instead of looping forever.
const defaultMaxReloginAttempts = 3

// loginSession remembers the credentials of a successful bot login so a
// dropped server session can be re-established without the caller noticing.
type loginSession struct {
	username string
	password string
	// assertUser is the canonical username the server reported; it is the
	// value injected as assertuser on subsequent requests.
	assertUser string
	// remaining is the relogin budget left. Guarded by Client.sessionMu.
	remaining int

	opts loginOptions
}

type loginOptions struct {
	autoRelogin        bool
	maxReloginAttempts int
	retryLimit         int
	extraParams        Params
}

// LoginOption adjusts one Login call.
type LoginOption func(*loginOptions)

// WithAutoRelogin toggles credential keep-alive. When disabled the client
// never injects assertuser and never relogs in on its own.
func WithAutoRelogin(enabled bool) LoginOption {
	return func(o *loginOptions) { o.autoRelogin = enabled }
}

// WithMaxReloginAttempts caps automatic relogins over the client's lifetime.
func WithMaxReloginAttempts(n int) LoginOption {
	return func(o *loginOptions) { o.maxReloginAttempts = n }
}

// WithLoginRetryLimit caps the login-token fetches for the call.
func WithLoginRetryLimit(n int) LoginOption {
	return func(o *loginOptions) { o.retryLimit = n }
}

// WithLoginParams adds extra action=login parameters, e.g. lgdomain.
func WithLoginParams(p Params) LoginOption {
	return func(o *loginOptions) { o.extraParams = p }
}

// LoginResult reports a completed login.
type LoginResult struct {
	UserID   int64
	Username string
}

// Login authenticates with the classic bot-password flow: fetch a fresh
// login token, post action=login with lgtoken, and retry with a forced
// refetch when the server answers NeedToken or WrongToken. On success the
// credentials are remembered for automatic relogin unless disabled.
//
// A *LoginFailedError means the server rejected the credentials; a
// *RetryExhaustedError means it never accepted any login token.
func (c *Client) Login(ctx context.Context, username, password string, opts ...LoginOption) (*LoginResult, error) {
	o := loginOptions{
		autoRelogin:        true,
		maxReloginAttempts: defaultMaxReloginAttempts,
		retryLimit:         defaultTokenRetryLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return c.login(ctx, username, password, o, false)
}

// login runs one credentialed login. preserveBudget keeps the current relogin
// budget instead of resetting it, which is what makes the budget a lifetime
// bound: relogins re-run this path but never refill their own allowance.
func (c *Client) login(ctx context.Context, username, password string, o loginOptions, preserveBudget bool) (*LoginResult, error) {
	body := Params{
		"action":     "login",
		"lgname":     username,
		"lgpassword": password,
	}
	for k, v := range o.extraParams {
		body[k] = v
	}

	// The server issues single-use login tokens bound to the session cookie,
	// so the cache is always bypassed on the first attempt.
	resp, err := c.PostWithToken(ctx, tokenstore.KindLogin, body,
		WithTokenField("lgtoken"),
		WithRetryLimit(o.retryLimit),
		WithForceRefresh(),
	)
	if err != nil {
		c.metrics.inc(MetricLoginFailure)
		return nil, err
	}

	login := resp.Login()
	if login == nil {
		c.metrics.inc(MetricLoginFailure)
		return nil, newLoginFailedError("", "", resp)
	}
	if login.Result != "Success" {
		c.metrics.inc(MetricLoginFailure)
		reason := ""
		if login.Reason != nil {
			reason = login.Reason.Text
		}
		return nil, newLoginFailedError(login.Result, reason, resp)
	}
	c.metrics.inc(MetricLoginSuccess)

	c.sessionMu.Lock()
	if o.autoRelogin {
		remaining := o.maxReloginAttempts
		if preserveBudget && c.session != nil {
			remaining = c.session.remaining
		}
		c.session = &loginSession{
			username:   username,
			password:   password,
			assertUser: login.Username,
			remaining:  remaining,
			opts:       o,
		}
	} else {
		c.session = nil
	}
	c.sessionMu.Unlock()

	return &LoginResult{UserID: login.UserID, Username: login.Username}, nil
}

// Logout forgets the session. Credentials and the relogin budget are dropped
// first, so nothing can re-arm the session mid-logout; the server-side
// action=logout is best effort and its failure is only logged. Logout always
// succeeds from the caller's point of view.
func (c *Client) Logout(ctx context.Context) {
	c.sessionMu.Lock()
	c.session = nil
	c.sessionMu.Unlock()

	if _, err := c.PostWithEditToken(ctx, Params{"action": "logout"}); err != nil {
		log.Print("mwapi: best-effort server logout failed: ", err)
	}

	if err := c.store.Clear(ctx); err != nil {
		log.Print("mwapi: token store clear on logout failed: ", err)
	}
	if jar, err := cookiejar.New(nil); err == nil {
		c.http.Jar = jar
	}
	c.metrics.inc(MetricLogouts)
}

// assertUser returns the username to assert on outgoing requests while a
// kept-alive session is armed.
func (c *Client) assertUser() (string, bool) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session == nil {
		return "", false
	}
	return c.session.assertUser, true
}

// consumeReloginBudget takes one attempt from the lifetime relogin budget.
func (c *Client) consumeReloginBudget() bool {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session == nil || c.session.remaining <= 0 {
		return false
	}
	c.session.remaining--
	return true
}

// relogin re-runs the remembered login after an assert-user failure. The
// budget was already consumed by the caller.
func (c *Client) relogin(ctx context.Context) error {
	c.sessionMu.Lock()
	session := c.session
	c.sessionMu.Unlock()
	if session == nil {
		return errors.New("mwapi: no remembered credentials")
	}

	c.metrics.inc(MetricRelogins)
	_, err := c.login(ctx, session.username, session.password, session.opts, true)
	if err != nil {
		log.Print("mwapi: automatic relogin failed: ", err)
	}
	return err
}
