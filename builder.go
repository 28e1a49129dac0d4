package mwapi

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/wikisaikou/mwapi/tokenstore"
)

// Builder assembles a Client. Construction is allocation-only; no network
// I/O happens before the first request.
type Builder struct {
	config Config
	store  tokenstore.Store

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration. Zero-valued DefaultParams and
// Timeout fall back to the package defaults at Build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the Action API endpoint.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithDefaultParams overlays params onto the default request parameters.
func (b *Builder) WithDefaultParams(params Params) *Builder {
	if b.config.DefaultParams == nil {
		b.config.DefaultParams = defaultParams()
	}
	for k, v := range params {
		b.config.DefaultParams[k] = v
	}
	return b
}

// WithHeader adds a header sent with every request.
func (b *Builder) WithHeader(key, value string) *Builder {
	if b.config.DefaultHeaders == nil {
		b.config.DefaultHeaders = http.Header{}
	}
	b.config.DefaultHeaders.Set(key, value)
	return b
}

// WithUserAgent sets the identifying agent string.
func (b *Builder) WithUserAgent(ua string) *Builder {
	b.config.UserAgent = ua
	return b
}

// WithThrowOnAPIError toggles strict API-error surfacing on Get/Post.
func (b *Builder) WithThrowOnAPIError(enabled bool) *Builder {
	b.config.ThrowOnAPIError = enabled
	return b
}

// WithOAuthToken sets an OAuth 2.0 bearer access token.
func (b *Builder) WithOAuthToken(token string) *Builder {
	b.config.OAuthToken = token
	return b
}

// WithHTTPClient overrides the HTTP transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.config.HTTPClient = client
	return b
}

// WithTokenStore replaces the default in-memory token cache.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.store = store
	return b
}

// WithRedis is shorthand for a Redis-backed token cache with default prefix
// and TTL, for bot fleets sharing one account session.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.store = tokenstore.NewRedisStore(client, "", 0)
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := b.config
	if cfg.DefaultParams == nil {
		cfg.DefaultParams = defaultParams()
	} else {
		cfg.DefaultParams = cloneParams(cfg.DefaultParams)
	}
	cfg.DefaultHeaders = cloneHeader(cfg.DefaultHeaders)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	store := b.store
	if store == nil {
		store = tokenstore.NewMemoryStore()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, ErrInvalidBaseURL
	}

	return &Client{
		config:  cfg,
		http:    httpClient,
		baseURL: base,
		store:   store,
		metrics: newMetrics(),
		kindMu:  make(map[tokenstore.Kind]*refreshLock),
	}, nil
}

// NewClient is a convenience constructor for the common case of a bare
// endpoint with default options.
func NewClient(baseURL string) (*Client, error) {
	return New().WithBaseURL(baseURL).Build()
}
