package mwapi

import (
	"encoding/json"
	"net/http"
)

// ResponseError is one normalized entry from the API's `error`/`errors`
// payload. The wire shape varies with errorformat and formatversion; Text is
// filled from `text`, then `info`, then `*`, and stays empty when none is
// present.
type ResponseError struct {
	Code   string
	Text   string
	Docref string
}

// UnmarshalJSON accepts both the object shape and the bare-string shape some
// legacy fields use (login failure reasons in older MediaWiki releases).
func (e *ResponseError) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code   string `json:"code"`
		Text   string `json:"text"`
		Info   string `json:"info"`
		Star   string `json:"*"`
		HTML   string `json:"html"`
		Docref string `json:"docref"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 == nil {
			*e = ResponseError{Text: s}
			return nil
		}
		return err
	}
	e.Code = raw.Code
	e.Docref = raw.Docref
	switch {
	case raw.Text != "":
		e.Text = raw.Text
	case raw.Info != "":
		e.Text = raw.Info
	case raw.Star != "":
		e.Text = raw.Star
	case raw.HTML != "":
		e.Text = raw.HTML
	default:
		e.Text = ""
	}
	return nil
}

// LoginPayload is the decoded `login` member of an action=login response.
type LoginPayload struct {
	Result   string         `json:"result"`
	Token    string         `json:"token"`
	UserID   int64          `json:"lguserid"`
	Username string         `json:"lgusername"`
	Reason   *ResponseError `json:"reason"`
}

type queryPayload struct {
	Tokens map[string]string `json:"tokens"`
}

// apiEnvelope is the slice of every Action API response the client itself
// inspects. Caller-facing payloads are decoded separately via
// Response.Unmarshal.
type apiEnvelope struct {
	Error    *ResponseError  `json:"error"`
	Errors   []ResponseError `json:"errors"`
	Login    *LoginPayload   `json:"login"`
	Query    *queryPayload   `json:"query"`
	Warnings json.RawMessage `json:"warnings"`
}

// Response is one decoded Action API exchange. Body holds the raw JSON so
// callers can decode their own result shapes with Unmarshal.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	envelope apiEnvelope
}

func newResponse(status int, header http.Header, body []byte) (*Response, error) {
	r := &Response{StatusCode: status, Header: header, Body: body}
	if err := json.Unmarshal(body, &r.envelope); err != nil {
		return nil, err
	}
	return r, nil
}

// Unmarshal decodes the response body into v.
func (r *Response) Unmarshal(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Login returns the decoded login payload, or nil for non-login responses.
func (r *Response) Login() *LoginPayload { return r.envelope.Login }

// Errors returns the normalized API error list embedded in the response.
// Both the singular `error` object and the `errors` array feed the same
// canonical list; downstream code never branches on the wire shape.
func (r *Response) Errors() []ResponseError {
	var out []ResponseError
	if r.envelope.Error != nil {
		out = append(out, *r.envelope.Error)
	}
	out = append(out, r.envelope.Errors...)
	return out
}

// Tokens returns the `query.tokens` map from a meta=tokens response, keyed by
// the wire field name ("csrftoken", "logintoken", ...). Nil otherwise.
func (r *Response) Tokens() map[string]string {
	if r.envelope.Query == nil {
		return nil
	}
	return r.envelope.Query.Tokens
}

// Warnings returns the raw `warnings` member, if the server sent one.
func (r *Response) Warnings() json.RawMessage { return r.envelope.Warnings }
