// Package config loads the rate limiter's declarative configuration from a
// YAML file with environment overrides.
//
// The file describes the enable flags, the layered AUTH limits, the AUTH
// endpoint path patterns, and the plan → limit map for the BUSINESS
// strategy:
//
//	enabled: true
//	auth:
//	  enabled: true
//	  paths: ["/api/auth/*", "/login"]
//	  limits:
//	    - { name: per-minute, capacity: 10, refill_tokens: 10, refill_period: 1m }
//	    - { name: per-hour, capacity: 100, refill_tokens: 100, refill_period: 1h }
//	business:
//	  enabled: true
//	  plans:
//	    free:         { name: free, capacity: 50, refill_tokens: 50, refill_period: 1h }
//	    basic:        { name: basic, capacity: 500, refill_tokens: 500, refill_period: 1h }
//	    professional: { name: professional, capacity: 5000, refill_tokens: 5000, refill_period: 1h }
//
// Validation happens at load time by constructing real BandwidthLimits, so a
// non-positive capacity or refill value fails loud and early instead of at
// first request.
package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yacosta738/ratekeeper"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "30s", "1m", or "1h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LimitSettings is the YAML shape of one bandwidth limit.
type LimitSettings struct {
	Name          string   `yaml:"name"`
	Capacity      int64    `yaml:"capacity"`
	RefillTokens  int64    `yaml:"refill_tokens"`
	RefillPeriod  Duration `yaml:"refill_period"`
	InitialTokens *int64   `yaml:"initial_tokens,omitempty"`
}

func (l LimitSettings) bandwidthLimit() (ratekeeper.BandwidthLimit, error) {
	limit, err := ratekeeper.NewBandwidthLimit(l.Name, l.Capacity, l.RefillTokens, time.Duration(l.RefillPeriod))
	if err != nil {
		return ratekeeper.BandwidthLimit{}, err
	}
	if l.InitialTokens != nil {
		limit = limit.WithInitialTokens(*l.InitialTokens)
	}
	return limit, nil
}

// AuthSettings configures the AUTH strategy.
type AuthSettings struct {
	Enabled bool            `yaml:"enabled"`
	Paths   []string        `yaml:"paths"`
	Limits  []LimitSettings `yaml:"limits"`
}

// MatchesPath reports whether p is one of the configured AUTH endpoints.
// Patterns are matched with path.Match; a pattern ending in "/*" also
// matches everything below that prefix.
func (a AuthSettings) MatchesPath(p string) bool {
	for _, pattern := range a.Paths {
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
		if prefix, found := strings.CutSuffix(pattern, "/*"); found && strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// BusinessSettings configures the BUSINESS strategy.
type BusinessSettings struct {
	Enabled bool                     `yaml:"enabled"`
	Plans   map[string]LimitSettings `yaml:"plans"`
}

// Settings is the full rate limiter configuration.
type Settings struct {
	Enabled  bool             `yaml:"enabled"`
	Auth     AuthSettings     `yaml:"auth"`
	Business BusinessSettings `yaml:"business"`
}

// Default returns the out-of-the-box configuration: both strategies enabled,
// 10/minute + 100/hour for AUTH, and hourly FREE/BASIC/PROFESSIONAL quotas.
func Default() Settings {
	return Settings{
		Enabled: true,
		Auth: AuthSettings{
			Enabled: true,
			Paths:   []string{"/api/auth/*"},
			Limits: []LimitSettings{
				{Name: "per-minute", Capacity: 10, RefillTokens: 10, RefillPeriod: Duration(time.Minute)},
				{Name: "per-hour", Capacity: 100, RefillTokens: 100, RefillPeriod: Duration(time.Hour)},
			},
		},
		Business: BusinessSettings{
			Enabled: true,
			Plans: map[string]LimitSettings{
				"free":         {Name: "free", Capacity: 50, RefillTokens: 50, RefillPeriod: Duration(time.Hour)},
				"basic":        {Name: "basic", Capacity: 500, RefillTokens: 500, RefillPeriod: Duration(time.Hour)},
				"professional": {Name: "professional", Capacity: 5000, RefillTokens: 5000, RefillPeriod: Duration(time.Hour)},
			},
		},
	}
}

// Load reads settings from the YAML file named by the RATEKEEPER_CONFIG
// environment variable (a .env file is honored first), falling back to
// Default when the variable is unset. Enable flags can be overridden with
// RATEKEEPER_ENABLED, RATEKEEPER_AUTH_ENABLED, and
// RATEKEEPER_BUSINESS_ENABLED.
func Load() (Settings, error) {
	_ = godotenv.Load()

	settings := Default()
	if file := strings.TrimSpace(os.Getenv("RATEKEEPER_CONFIG")); file != "" {
		loaded, err := LoadFile(file)
		if err != nil {
			return Settings{}, err
		}
		settings = loaded
	}

	if err := applyEnvFlag("RATEKEEPER_ENABLED", &settings.Enabled); err != nil {
		return Settings{}, err
	}
	if err := applyEnvFlag("RATEKEEPER_AUTH_ENABLED", &settings.Auth.Enabled); err != nil {
		return Settings{}, err
	}
	if err := applyEnvFlag("RATEKEEPER_BUSINESS_ENABLED", &settings.Business.Enabled); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// LoadFile reads and validates settings from the given YAML file.
func LoadFile(file string) (Settings, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", file, err)
	}
	var settings Settings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing config %s: %w", file, err)
	}
	if _, err := settings.SpecSource(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SpecSource validates the settings and converts them into the SpecSource
// consumed by ratekeeper.New.
func (s Settings) SpecSource() (*ratekeeper.SpecSource, error) {
	authLimits := make([]ratekeeper.BandwidthLimit, 0, len(s.Auth.Limits))
	for _, ls := range s.Auth.Limits {
		limit, err := ls.bandwidthLimit()
		if err != nil {
			return nil, err
		}
		authLimits = append(authLimits, limit)
	}

	plans := make(map[string]ratekeeper.BandwidthLimit, len(s.Business.Plans))
	for name, ls := range s.Business.Plans {
		limit, err := ls.bandwidthLimit()
		if err != nil {
			return nil, err
		}
		plans[name] = limit
	}
	return ratekeeper.NewSpecSource(authLimits, plans)
}

func applyEnvFlag(key string, target *bool) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = v
	return nil
}
