package engine

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/germanamz/azllm/pkg/providers/azure"
	"github.com/germanamz/azllm/pkg/tokens"
)

// Environment variables read by FromEnv.
const (
	EnvDeploymentName = "OPENAI_DEPLOYMENT_NAME"
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvEndpoint       = "OPENAI_API_BASE"
	EnvAPIVersion     = "OPENAI_API_VERSION"
)

// DefaultKind is the provider kind used when none is configured.
const DefaultKind = "azure"

// Sentinel errors returned by Config.Validate.
var (
	ErrMissingDeployment = errors.New("deployment name is required")
	ErrMissingAPIKey     = errors.New("api key is required")
	ErrMissingEndpoint   = errors.New("endpoint is required")
)

// Config is everything needed to build an Engine. It is filled once at
// startup (FromEnv or LoadConfig) and passed to New.
type Config struct {
	Kind           string        `yaml:"kind"`
	DeploymentName string        `yaml:"deployment_name"`
	APIKey         string        `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Endpoint       string        `yaml:"endpoint"`
	APIVersion     string        `yaml:"api_version"`
	Model          string        `yaml:"model"`
	MaxTokens      int           `yaml:"max_tokens"` // -1 fills the remaining context window.
	Temperature    *float64      `yaml:"temperature"` // nil keeps the adapter default.
	Timeout        time.Duration `yaml:"timeout"` // e.g. "30s"; 0 keeps the adapter default.
	HTTPClient     *http.Client  `yaml:"-"`       // Set programmatically, never from YAML.
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("engine: load env file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from the process environment. Absent variables
// are left empty; nothing is validated here.
func FromEnv() Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup is FromEnv with an injectable lookup function.
func FromLookup(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	cfg := Config{
		DeploymentName: get(EnvDeploymentName),
		APIKey:         get(EnvAPIKey),
		Endpoint:       get(EnvEndpoint),
		APIVersion:     get(EnvAPIVersion),
	}

	return cfg.withDefaults()
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so secrets can stay in the environment (e.g. loaded from a
// .env file). Fields the file leaves empty are taken from FromEnv.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg.merge(FromEnv()), nil
}

// merge fills empty fields of c from fallback.
func (c Config) merge(fallback Config) Config {
	if c.Kind == "" {
		c.Kind = fallback.Kind
	}
	if c.DeploymentName == "" {
		c.DeploymentName = fallback.DeploymentName
	}
	if c.APIKey == "" {
		c.APIKey = fallback.APIKey
	}
	if c.Endpoint == "" {
		c.Endpoint = fallback.Endpoint
	}
	if c.APIVersion == "" {
		c.APIVersion = fallback.APIVersion
	}
	if c.Model == "" {
		c.Model = fallback.Model
	}

	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Kind == "" {
		c.Kind = DefaultKind
	}
	if c.Model == "" {
		c.Model = tokens.DefaultModel
	}
	if c.APIVersion == "" {
		c.APIVersion = azure.DefaultAPIVersion
	}
	return c
}

// Validate checks that every required field is present and the kind is
// known. Missing fields are reported with the environment variable that
// would supply them.
func (c Config) Validate() error {
	if c.DeploymentName == "" {
		return fmt.Errorf("engine: config: %w (set %s)", ErrMissingDeployment, EnvDeploymentName)
	}
	if c.APIKey == "" {
		return fmt.Errorf("engine: config: %w (set %s)", ErrMissingAPIKey, EnvAPIKey)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("engine: config: %w (set %s)", ErrMissingEndpoint, EnvEndpoint)
	}
	if c.MaxTokens < azure.FillContext {
		return fmt.Errorf("engine: config: invalid max_tokens %d", c.MaxTokens)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("engine: config: temperature %g out of range [0, 2]", *c.Temperature)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("engine: config: negative timeout %s", c.Timeout)
	}

	kind := c.Kind
	if kind == "" {
		kind = DefaultKind
	}
	if _, ok := getFactory(kind); !ok {
		return fmt.Errorf("engine: config: unknown provider kind %q", kind)
	}

	return nil
}
