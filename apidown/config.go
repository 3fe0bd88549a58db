package apidown

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "APIDOWN"

// Config is the file/environment form of the Checker configuration.
//
// Example YAML:
//
//	untrusted_url: https://api.example.com/health
//	trusted_url: https://google.com
//	ttl: 10s
//	timeout: 3s
type Config struct {
	UntrustedURL string        `yaml:"untrusted_url" envconfig:"UNTRUSTED_URL" validate:"omitempty,url"`
	TrustedURL   string        `yaml:"trusted_url" envconfig:"TRUSTED_URL" validate:"omitempty,url"`
	TTL          time.Duration `yaml:"ttl" envconfig:"TTL" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		TrustedURL: DefaultTrustedURL,
		TTL:        DefaultTTL,
		Timeout:    DefaultTimeout,
	}
}

// Validate checks URL syntax and that durations are not negative.
// An empty UntrustedURL is allowed here; New reports it if no Validator is set either.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the YAML file at path
// (skipped if path is empty or the file does not exist), then APIDOWN_*
// environment variables (APIDOWN_UNTRUSTED_URL, APIDOWN_TRUSTED_URL,
// APIDOWN_TTL, APIDOWN_TIMEOUT).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
