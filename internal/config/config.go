package config

import (
	"fmt"
	"strings"
	"time"

	"domainwatch/pkg/serrors"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure. It contains the
// API credentials and endpoint, batch execution tuning, and file paths for
// the domain list and results.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// API contains the compromise-intelligence API settings
	API struct {
		// URLTemplate is the endpoint URL with two %s slots for the ISO start and end dates
		URLTemplate string `env:"API_URL_TEMPLATE" yaml:"urlTemplate"`
		// Key is the collaborator-provided API credential
		Key string `env:"API_KEY" yaml:"key"`
		// ContentType is the request content type header
		ContentType string `env:"API_CONTENT_TYPE" env-default:"application/json" yaml:"contentType"`
		// QueryType is the "type" query parameter sent with each request
		QueryType string `env:"API_QUERY_TYPE" env-default:"employees" yaml:"queryType"`
		// ThirdPartyDomains toggles the "third_party_domains" query parameter
		ThirdPartyDomains bool `env:"API_THIRD_PARTY_DOMAINS" env-default:"true" yaml:"thirdPartyDomains"`
		// RequestTimeout bounds each individual HTTP request; a timeout is retried as transient
		RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// RequestsPerSecond caps the outbound request rate across all workers; 0 disables pacing
		RequestsPerSecond float64 `env:"API_REQUESTS_PER_SECOND" env-default:"0" yaml:"requestsPerSecond"`
	} `yaml:"api"`

	// Check contains the batch execution tuning
	Check struct {
		// BatchSize is the maximum number of domains per API request
		BatchSize int `env:"CHECK_BATCH_SIZE" env-default:"50" yaml:"batchSize"`
		// Concurrency is the number of batches processed in parallel
		Concurrency int `env:"CHECK_CONCURRENCY" env-default:"4" yaml:"concurrency"`
		// MaxAttempts is the total number of attempts per batch, including the first
		MaxAttempts int `env:"CHECK_MAX_ATTEMPTS" env-default:"5" yaml:"maxAttempts"`
		// BackoffBase is the first retry delay; it doubles on every subsequent attempt
		BackoffBase time.Duration `env:"CHECK_BACKOFF_BASE" env-default:"1s" yaml:"backoffBase"`
	} `yaml:"check"`

	// Input is the path of the domain list (JSON array or one domain per line)
	Input string `env:"INPUT" env-default:"domains.json" yaml:"input"`
	// Output is the path the matched domains are written to, one per line
	Output string `env:"OUTPUT" env-default:"results.txt" yaml:"output"`

	// Ops contains the optional debug HTTP listener settings
	Ops struct {
		// Addr is the listen address for metrics and pprof; empty disables the listener
		Addr string `env:"OPS_ADDR" env-default:"" yaml:"addr"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"OPS_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"ops"`

	// GracefulShutdownTimeout is the maximum duration to wait for in-flight batches during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"30s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for the yaml config file and returns a filled
// Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the invariants the pipeline depends on. It returns a
// config-kind error so the process can abort before any batch runs.
func (c *Config) Validate() error {
	switch {
	case c.API.URLTemplate == "":
		return serrors.With(serrors.ErrConfig, "api url template is required")
	case strings.Count(c.API.URLTemplate, "%s") != 2:
		return serrors.With(serrors.ErrConfig,
			"api url template must contain exactly two date slots: %q", c.API.URLTemplate)
	case c.API.Key == "":
		return serrors.With(serrors.ErrConfig, "api key is required")
	case c.Check.BatchSize <= 0:
		return serrors.With(serrors.ErrConfig, "batch size must be positive, got %d", c.Check.BatchSize)
	case c.Check.Concurrency <= 0:
		return serrors.With(serrors.ErrConfig, "concurrency must be positive, got %d", c.Check.Concurrency)
	case c.Check.MaxAttempts <= 0:
		return serrors.With(serrors.ErrConfig, "max attempts must be positive, got %d", c.Check.MaxAttempts)
	case c.Check.BackoffBase <= 0:
		return serrors.With(serrors.ErrConfig, "backoff base must be positive, got %s", c.Check.BackoffBase)
	case c.Input == "":
		return serrors.With(serrors.ErrConfig, "input path is required")
	case c.Output == "":
		return serrors.With(serrors.ErrConfig, "output path is required")
	}

	return nil
}
