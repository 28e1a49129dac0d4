package mwapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Credentials is a bot account description loaded from a YAML file, the
// shape most bot operators keep next to their deployment config.
type Credentials struct {
	BaseURL    string            `yaml:"baseURL"`
	Username   string            `yaml:"username"`
	Password   string            `yaml:"password"`
	OAuthToken string            `yaml:"oauthToken"`
	UserAgent  string            `yaml:"userAgent"`
	Headers    map[string]string `yaml:"headers"`
	Params     map[string]string `yaml:"params"`
}

// LoadCredentials reads and validates a YAML credentials file.
func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mwapi: read credentials: %w", err)
	}
	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("mwapi: parse credentials: %w", err)
	}
	if creds.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	return &creds, nil
}

// Builder returns a Builder preconfigured from the credentials. Username and
// Password are not consumed here; pass them to Login after Build.
func (cr *Credentials) Builder() *Builder {
	b := New().WithBaseURL(cr.BaseURL)
	if cr.UserAgent != "" {
		b.WithUserAgent(cr.UserAgent)
	}
	if cr.OAuthToken != "" {
		b.WithOAuthToken(cr.OAuthToken)
	}
	for k, v := range cr.Headers {
		b.WithHeader(k, v)
	}
	if len(cr.Params) > 0 {
		overlay := Params{}
		for k, v := range cr.Params {
			overlay[k] = v
		}
		b.WithDefaultParams(overlay)
	}
	return b
}
