package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// AdminPasswordEnv is the environment variable holding the shared admin secret.
	AdminPasswordEnv = "ADMIN_PASSWORD"

	// GitHubTokenEnv is the environment variable for the token used to commit the catalog.
	GitHubTokenEnv = "GITHUB_TOKEN"

	// GitHubOwnerEnv is the environment variable for the owner of the catalog repository.
	GitHubOwnerEnv = "GITHUB_OWNER"

	// GitHubRepoEnv is the environment variable for the catalog repository name.
	GitHubRepoEnv = "GITHUB_REPO"

	// GitHubPathEnv is the environment variable for the catalog document path.
	GitHubPathEnv = "GITHUB_PATH"

	// GitHubBranchEnv is the environment variable for the catalog branch.
	GitHubBranchEnv = "GITHUB_BRANCH"

	// GitHubAPIURLEnv is the environment variable for a custom contents API base URL.
	GitHubAPIURLEnv = "GITHUB_API_URL"

	// GitHubRawURLEnv is the environment variable for the raw-content base URL.
	GitHubRawURLEnv = "GITHUB_RAW_URL"

	// OutboundTimeoutEnv is the environment variable for the outbound call timeout in seconds.
	OutboundTimeoutEnv = "OUTBOUND_TIMEOUT_SECONDS"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// DefaultGitHubPath is the catalog document path used when none is configured.
	DefaultGitHubPath = "data/products.json"

	// DefaultGitHubBranch is the catalog branch used when none is configured.
	DefaultGitHubBranch = "main"

	// DefaultGitHubRawURL is the public raw-content host.
	DefaultGitHubRawURL = "https://raw.githubusercontent.com"

	// DefaultOutboundTimeout is the timeout in seconds applied to outbound calls.
	DefaultOutboundTimeout = "15"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")
)

// Config represents the application configuration.
type Config struct {
	DebugMode       bool
	AdminPassword   string
	HTTPServer      Server
	MetricsServer   Server
	GitHub          GitHub
	OutboundTimeout time.Duration
	AWS             AWSConfig
}

// GitHub describes where the catalog document lives.
type GitHub struct {
	Token  string
	Owner  string
	Repo   string
	Path   string
	Branch string
	APIURL string
	RawURL string
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// NotificationsEnabled reports whether catalog change notifications should be published.
func (a AWSConfig) NotificationsEnabled() bool {
	return a.SQSQueueURL != ""
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	// Validate port numbers
	if err := allNumbers(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	// Token and admin password may be absent: writes then fail with 500 / 401.
	if err := allNonEmpty(map[string]string{
		GitHubOwnerEnv: c.GitHub.Owner,
		GitHubRepoEnv:  c.GitHub.Repo,
	}); err != nil {
		return fmt.Errorf("GitHub configuration incomplete: %w", err)
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

func getEnvAsSeconds(name, defaultValue string) (time.Duration, error) {
	raw := getEnv(name, defaultValue)
	if err := allNumbers(map[string]string{name: raw}); err != nil {
		return 0, err
	}
	seconds, _ := strconv.Atoi(raw)
	if seconds <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads the catalog service configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	conf, err := load()
	if err != nil {
		return nil, err
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}

// LoadConsumerFromEnv loads the configuration of a queue consumer. Only the
// AWS settings are required.
func LoadConsumerFromEnv() (*Config, error) {
	conf, err := load()
	if err != nil {
		return nil, err
	}
	if err := allNonEmpty(map[string]string{
		AWSRegionEnv:   conf.AWS.Region,
		SQSQueueURLEnv: conf.AWS.SQSQueueURL,
	}); err != nil {
		return nil, fmt.Errorf("configuration validation failed: AWS configuration incomplete: %w", err)
	}
	return conf, nil
}

func load() (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	timeout, err := getEnvAsSeconds(OutboundTimeoutEnv, DefaultOutboundTimeout)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	conf := &Config{
		DebugMode:     getEnvAsBool(DebugModeEnv, false),
		AdminPassword: os.Getenv(AdminPasswordEnv),
		HTTPServer: Server{
			Port: os.Getenv(HTTPServerPortEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		GitHub: GitHub{
			Token:  os.Getenv(GitHubTokenEnv),
			Owner:  os.Getenv(GitHubOwnerEnv),
			Repo:   os.Getenv(GitHubRepoEnv),
			Path:   getEnv(GitHubPathEnv, DefaultGitHubPath),
			Branch: getEnv(GitHubBranchEnv, DefaultGitHubBranch),
			APIURL: os.Getenv(GitHubAPIURLEnv),
			RawURL: getEnv(GitHubRawURLEnv, DefaultGitHubRawURL),
		},
		OutboundTimeout: timeout,
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
	}
	return conf, nil
}
