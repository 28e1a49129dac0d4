// Package rest is a thin client for the MediaWiki REST API (rest.php). It
// shares nothing with the Action API token machinery: REST endpoints use
// OAuth or cookie auth and plain HTTP semantics.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidEndpoint is returned by New for endpoints that are not
	// absolute http(s) URLs.
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) URL")
	// ErrInvalidPath is returned when a path template still contains
	// unresolved {placeholders} after substitution.
	ErrInvalidPath = errors.New("path has unresolved placeholders")
)

const defaultTimeout = 30 * time.Second

// Config collects the REST client options.
type Config struct {
	// Endpoint is the rest.php root, e.g. "https://example.org/w/rest.php".
	// Query and fragment are stripped; a trailing slash is ensured so
	// relative paths resolve under the root.
	Endpoint string

	// Headers are sent with every request.
	Headers http.Header

	// UserAgent is sent as both User-Agent and Api-User-Agent.
	UserAgent string

	// Timeout bounds each exchange when no custom HTTPClient is given.
	Timeout time.Duration

	// HTTPClient overrides the transport.
	HTTPClient *http.Client
}

// Client issues requests against one REST endpoint root.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers http.Header
	ua      string
}

// New validates and normalizes the endpoint and returns a ready client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.Endpoint)
	if err != nil || !base.IsAbs() || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, ErrInvalidEndpoint
	}
	base.RawQuery = ""
	base.Fragment = ""
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	headers := http.Header{}
	for k, vs := range cfg.Headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}

	return &Client{base: base, http: httpClient, headers: headers, ua: cfg.UserAgent}, nil
}

type requestOptions struct {
	pathParams map[string]string
	query      url.Values
	headers    http.Header
}

// Option adjusts one request.
type Option func(*requestOptions)

// WithPathParams substitutes {name} placeholders in the path template.
// Values are percent-encoded.
func WithPathParams(params map[string]string) Option {
	return func(o *requestOptions) { o.pathParams = params }
}

// WithQuery sets query parameters.
func WithQuery(query url.Values) Option {
	return func(o *requestOptions) { o.query = query }
}

// WithHeader adds a header to one request.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// Response is one REST exchange. Body is fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Unmarshal decodes the JSON body into v.
func (r *Response) Unmarshal(v any) error {
	return json.Unmarshal(r.Body, v)
}

// IsJSON reports whether the server declared a JSON body.
func (r *Response) IsJSON() bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

var placeholderRe = regexp.MustCompile(`\{[^{}]+\}`)

// resolvePath expands {name} placeholders and rejects templates with
// leftovers, which would otherwise hit the server as literal braces.
func resolvePath(path string, params map[string]string) (string, error) {
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	if m := placeholderRe.FindString(path); m != "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, m)
	}
	return path, nil
}

// Do performs one request. path is resolved against the endpoint root unless
// it is already absolute. body is JSON-marshalled unless it is nil, a
// []byte, or an io.Reader, which are sent raw.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...Option) (*Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := resolvePath(path, o.pathParams)
	if err != nil {
		return nil, err
	}

	var target *url.URL
	if strings.HasPrefix(resolved, "http://") || strings.HasPrefix(resolved, "https://") {
		target, err = url.Parse(resolved)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, resolved)
		}
	} else {
		rel, err := url.Parse(strings.TrimPrefix(resolved, "/"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, resolved)
		}
		target = c.base.ResolveReference(rel)
	}
	if o.query != nil {
		target.RawQuery = o.query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("rest: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	for key, vals := range c.headers {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
		req.Header.Set("Api-User-Agent", c.ua)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, vals := range o.headers {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}
