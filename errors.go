package mwapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wikisaikou/mwapi/tokenstore"
)

var (
	// ErrBadToken matches API errors reporting a stale or missing action
	// token. It is consumed by the internal retry loop and only surfaces
	// wrapped inside a *RetryExhaustedError.
	ErrBadToken = errors.New("bad token")
	// ErrAssertUserFailed matches API errors reporting that the session's
	// authenticated identity no longer matches the asserted user.
	ErrAssertUserFailed = errors.New("assert user failed")
	// ErrTokenRetryLimitExceeded matches *RetryExhaustedError: the server
	// kept rejecting tokens until the retry budget ran out.
	ErrTokenRetryLimitExceeded = errors.New("token retry limit exceeded")
	// ErrLoginFailed matches *LoginFailedError: the server reported anything
	// other than its success status for action=login.
	ErrLoginFailed = errors.New("login failed")
	// ErrTransport matches *TransportError: the request failed at the HTTP
	// layer, or the server answered with something that is not a MediaWiki
	// API response.
	ErrTransport = errors.New("transport error")
	// ErrOAuthTokenExpired is returned before any network call when the
	// configured OAuth 2.0 access token has already expired.
	ErrOAuthTokenExpired = errors.New("oauth token expired")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrMissingBaseURL is returned by Build when no API endpoint was given.
	ErrMissingBaseURL = errors.New("baseURL is required")
	// ErrInvalidBaseURL is returned by Build for endpoints that are not
	// absolute http(s) URLs.
	ErrInvalidBaseURL = errors.New("baseURL must be an absolute http(s) URL")
	// ErrInvalidTokenKind is returned for token kinds the API does not issue.
	ErrInvalidTokenKind = errors.New("invalid token kind")
)

// APIError is a business error reported by the wiki itself: the HTTP exchange
// succeeded but the JSON body carries an `error` object or `errors` array.
// Code and Message come from the first normalized entry; Errors holds the
// full list.
type APIError struct {
	Code    string
	Message string
	Errors  []ResponseError

	response *Response
}

func newAPIError(errs []ResponseError, resp *Response) *APIError {
	e := &APIError{Errors: errs, response: resp}
	if len(errs) > 0 {
		e.Code = errs[0].Code
		e.Message = errs[0].Text
	}
	if e.Code == "" {
		e.Code = "unknown"
	}
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mwapi: api error %s", e.Code)
	}
	return fmt.Sprintf("mwapi: api error %s: %s", e.Code, e.Message)
}

// Response returns the response the error was extracted from, when available.
func (e *APIError) Response() *Response { return e.response }

// Is maps token and session error codes onto the package sentinels so
// callers can use errors.Is without inspecting codes themselves.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadToken:
		return e.isBadToken()
	case ErrAssertUserFailed:
		return e.isAssertUserFailed()
	}
	return false
}

func (e *APIError) isBadToken() bool {
	for _, re := range e.Errors {
		if re.Code == "badtoken" {
			return true
		}
	}
	if e.response != nil && e.response.envelope.Login != nil {
		switch e.response.envelope.Login.Result {
		case "NeedToken", "WrongToken":
			return true
		}
	}
	return false
}

func (e *APIError) isAssertUserFailed() bool {
	for _, re := range e.Errors {
		if re.Code == "assertuserfailed" || re.Code == "assertnameduserfailed" {
			return true
		}
	}
	return false
}

// TransportError wraps failures below the API layer: network errors, non-2xx
// statuses without a parseable API error body, or bodies that are not JSON.
type TransportError struct {
	// Status is the HTTP status code, or zero when the request never
	// produced a response.
	Status int

	cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("mwapi: transport error")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *TransportError) Unwrap() error { return e.cause }

// Is reports true for the ErrTransport sentinel.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RetryExhaustedError is raised when the bad-token retry budget runs out: the
// server rejected every token the client could fetch. It is distinct from
// *APIError so callers can tell "tokens keep failing" apart from a single
// business error.
type RetryExhaustedError struct {
	// Kind is the token kind that kept failing.
	Kind tokenstore.Kind

	cause error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("mwapi: retry limit exceeded while re-acquiring %q token", e.Kind)
}

// Unwrap exposes the last server-side rejection, when one was recorded.
func (e *RetryExhaustedError) Unwrap() error { return e.cause }

// Is reports true for the ErrTokenRetryLimitExceeded sentinel.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrTokenRetryLimitExceeded
}

// LoginFailedError is raised when action=login reports any result other than
// "Success". Reason is never empty: it falls back to the raw result code and
// then to a fixed message.
type LoginFailedError struct {
	// Result is the raw login result code ("Failed", "Aborted", ...).
	Result string
	// Reason is the server-provided reason text when available.
	Reason string

	response *Response
}

func newLoginFailedError(result, reason string, resp *Response) *LoginFailedError {
	if reason == "" {
		reason = result
	}
	if reason == "" {
		reason = "login failed with unknown reason"
	}
	return &LoginFailedError{Result: result, Reason: reason, response: resp}
}

// Error implements the error interface.
func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("mwapi: login failed: %s", e.Reason)
}

// Response returns the login response the error was extracted from.
func (e *LoginFailedError) Response() *Response { return e.response }

// Is reports true for the ErrLoginFailed sentinel.
func (e *LoginFailedError) Is(target error) bool { return target == ErrLoginFailed }
