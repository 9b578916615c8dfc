package providers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderSettings carries the per-provider configuration assembled from
// built-in defaults, an optional providers.yaml, and environment variables.
type ProviderSettings struct {
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Timeout      time.Duration
}

// yamlSettings is the providers.yaml shape. Only endpoint/scope/timeout tuning
// lives in the file; credentials always come from the environment.
type yamlSettings struct {
	AuthorizeURL string   `yaml:"authorize_url"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`
	Timeout      string   `yaml:"timeout"`
}

// Registry holds the configured providers keyed by their redirect parameter.
type Registry struct {
	providers map[string]*Provider
	order     []string
}

// Get returns a provider by key.
func (r *Registry) Get(key string) (*Provider, bool) {
	p, ok := r.providers[key]
	return p, ok
}

// Each calls fn for every configured provider in registration order.
func (r *Registry) Each(fn func(*Provider)) {
	for _, key := range r.order {
		fn(r.providers[key])
	}
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.order)
}

// LoadRegistryFromEnv builds the provider registry. A provider missing its
// client id, client secret, or redirect URI is skipped with a warning so a
// partial local setup still starts.
func LoadRegistryFromEnv() (*Registry, error) {
	fileSettings := loadYAMLSettings(os.Getenv("PROVIDERS_CONFIG_PATH"))

	registry := &Registry{providers: make(map[string]*Provider)}

	slackSettings := mergeSettings(DefaultSlackSettings(), fileSettings["slack"])
	slackSettings.ClientID = os.Getenv("SLACK_CLIENT_ID")
	slackSettings.ClientSecret = os.Getenv("SLACK_CLIENT_SECRET")
	slackSettings.RedirectURI = os.Getenv("SLACK_REDIRECT_URI")
	if err := registerProvider(registry, NewSlackProvider(slackSettings)); err != nil {
		return nil, err
	}

	zoomSettings := mergeSettings(DefaultZoomSettings(), fileSettings["zoom"])
	zoomSettings.ClientID = os.Getenv("ZOOM_CLIENT_ID")
	zoomSettings.ClientSecret = os.Getenv("ZOOM_CLIENT_SECRET")
	zoomSettings.RedirectURI = os.Getenv("ZOOM_REDIRECT_URI")
	if err := registerProvider(registry, NewZoomProvider(zoomSettings)); err != nil {
		return nil, err
	}

	if registry.Len() == 0 {
		return nil, fmt.Errorf("no providers configured: set SLACK_* or ZOOM_* credentials")
	}
	return registry, nil
}

func registerProvider(r *Registry, p *Provider) error {
	if p.ClientID == "" || p.ClientSecret == "" || p.RedirectURI == "" {
		fmt.Printf("Warning: %s provider not configured (missing client id, secret, or redirect URI), skipping\n", p.DisplayName)
		return nil
	}
	if _, exists := r.providers[p.Key]; exists {
		return fmt.Errorf("duplicate provider key %q", p.Key)
	}
	r.providers[p.Key] = p
	r.order = append(r.order, p.Key)
	return nil
}

func loadYAMLSettings(path string) map[string]yamlSettings {
	if path == "" {
		path = "providers.yaml"
	}

	settings := make(map[string]yamlSettings)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			fmt.Printf("Warning: ignoring malformed %s: %v\n", path, err)
			return map[string]yamlSettings{}
		}
	}
	return settings
}

func mergeSettings(base ProviderSettings, file yamlSettings) ProviderSettings {
	if v := strings.TrimSpace(file.AuthorizeURL); v != "" {
		base.AuthorizeURL = v
	}
	if v := strings.TrimSpace(file.TokenURL); v != "" {
		base.TokenURL = v
	}
	if len(file.Scopes) > 0 {
		base.Scopes = file.Scopes
	}
	if v := strings.TrimSpace(file.Timeout); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			base.Timeout = dur
		}
	}
	return base
}
