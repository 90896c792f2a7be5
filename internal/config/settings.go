package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Settings are the environment tunables.
type Settings struct {
	DestroyMaxAttempts   int           `env:"SAFEHAVEN_DESTROY_MAX_ATTEMPTS" envDefault:"60"`
	DestroyRetryInterval time.Duration `env:"SAFEHAVEN_DESTROY_RETRY_INTERVAL" envDefault:"30s"`
	CredentialTTL        time.Duration `env:"SAFEHAVEN_CREDENTIAL_TTL" envDefault:"15m"`
	LogLevel             string        `env:"SAFEHAVEN_LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"SAFEHAVEN_LOG_FORMAT" envDefault:"auto"`
	StateAccessKey       string        `env:"SAFEHAVEN_STATE_ACCESS_KEY"`
	StateSecretKey       string        `env:"SAFEHAVEN_STATE_SECRET_KEY"`
	// MetricsFile receives the run's metrics in the text exposition format.
	MetricsFile string `env:"SAFEHAVEN_METRICS_FILE"`
}

// LoadSettings reads the tunables from the process environment.
func LoadSettings() (*Settings, error) {
	return parseSettings(env.Options{})
}

// LoadSettingsFrom reads the tunables from environ instead of the process
// environment.
func LoadSettingsFrom(environ map[string]string) (*Settings, error) {
	return parseSettings(env.Options{Environment: environ})
}

func parseSettings(opts env.Options) (*Settings, error) {
	s := &Settings{}
	if err := env.ParseWithOptions(s, opts); err != nil {
		return nil, fmt.Errorf("parsing environment settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the tunables.
func (s *Settings) Validate() error {
	if s.DestroyMaxAttempts < 1 {
		return fmt.Errorf("SAFEHAVEN_DESTROY_MAX_ATTEMPTS must be at least 1, got %d", s.DestroyMaxAttempts)
	}
	if s.DestroyRetryInterval <= 0 {
		return fmt.Errorf("SAFEHAVEN_DESTROY_RETRY_INTERVAL must be positive, got %s", s.DestroyRetryInterval)
	}
	if s.CredentialTTL <= 0 {
		return fmt.Errorf("SAFEHAVEN_CREDENTIAL_TTL must be positive")
	}
	return nil
}

// Apply overlays environment-provided state credentials onto cfg.
func (s *Settings) Apply(cfg *Config) {
	if s.StateAccessKey != "" {
		cfg.State.AccessKey = s.StateAccessKey
	}
	if s.StateSecretKey != "" {
		cfg.State.SecretKey = s.StateSecretKey
	}
}
