package mwapi

import (
	"net/http"
	"net/url"
	"time"
)

// Params is a semi-structured parameter map for one API call. Values are
// normalized at the wire boundary: string slices join with "|", true becomes
// "1", false and nil are omitted, numbers become decimal strings.
type Params = map[string]any

// Config collects every recognized client option. There is exactly one
// configuration-resolution path: fill a Config (or use the Builder) and pass
// it to Build; there are no positional constructor variants.
type Config struct {
	// BaseURL is the Action API endpoint, e.g.
	// "https://www.mediawiki.org/w/api.php". Required.
	BaseURL string

	// DefaultParams are merged into every request; per-call values win on
	// conflict. The zero value inherits the standard JSON response flags.
	DefaultParams Params

	// DefaultHeaders are sent with every request.
	DefaultHeaders http.Header

	// UserAgent is sent as both User-Agent and Api-User-Agent. Wikimedia
	// sites require an identifying agent for bot traffic.
	UserAgent string

	// ThrowOnAPIError makes Get/Post return an *APIError whenever a 2xx
	// body embeds `error`/`errors`, instead of handing the response back
	// for the caller to inspect.
	ThrowOnAPIError bool

	// OAuthToken is an OAuth 2.0 bearer access token. When set it is sent
	// as an Authorization header and its JWT expiry is checked locally
	// before each request.
	OAuthToken string

	// Timeout bounds each HTTP exchange when no custom HTTPClient is given.
	Timeout time.Duration

	// HTTPClient overrides the transport. A cookie jar is installed when
	// the supplied client has none, because MediaWiki sessions ride on
	// cookies.
	HTTPClient *http.Client
}

const defaultTimeout = 30 * time.Second

// defaultParams are the response-format flags every request carries unless
// overridden. errorformat=plaintext keeps error texts machine-readable.
func defaultParams() Params {
	return Params{
		"action":        "query",
		"format":        "json",
		"formatversion": 2,
		"errorformat":   "plaintext",
	}
}

func defaultConfig() Config {
	return Config{
		DefaultParams: defaultParams(),
		Timeout:       defaultTimeout,
	}
}

func cloneParams(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func cloneHeader(h http.Header) http.Header {
	out := http.Header{}
	for k, vs := range h {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}

// validate checks the resolved configuration before any network use.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	return nil
}
