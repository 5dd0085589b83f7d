package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names recognized in PERFSAGE_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates runtime configuration for the PerfSage API.
type Config struct {
	Env       string
	Server    ServerConfig
	AWS       AWSConfig
	OpenAI    OpenAIConfig
	Auth      AuthConfig
	Quota     QuotaConfig
	Analytics AnalyticsConfig
	Metrics   MetricsConfig
	LogLevel  string
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AWSConfig carries the delegated-credential and table configuration.
type AWSConfig struct {
	Region            string
	RoleARN           string
	SessionName       string
	SessionDuration   time.Duration
	ExpiryMargin      time.Duration
	AccessKeyID       string
	SecretAccessKey   string
	UsageTable        string
	SettingsTable     string
	OperationTimeout  time.Duration
	SecretsNamePrefix string
}

// OpenAIConfig holds completion-call parameters forwarded verbatim
// to the completion endpoint.
type OpenAIConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	RequestTimeout   time.Duration
}

// AuthConfig groups session and OAuth settings.
type AuthConfig struct {
	SessionSecret      string
	SessionTTL         time.Duration
	GitHubClientID     string
	GitHubClientSecret string
	CallbackURL        string
}

// QuotaConfig bounds per-user usage.
type QuotaConfig struct {
	UploadCeiling int
	MaxFileBytes  int64
}

// AnalyticsConfig controls the aggregate snapshot refresh.
type AnalyticsConfig struct {
	CronSpec string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	env := strings.ToLower(getString("PERFSAGE_ENV", EnvDevelopment))
	if env != EnvDevelopment && env != EnvProduction {
		return Config{}, fmt.Errorf("unknown PERFSAGE_ENV %q", env)
	}

	cfg := Config{
		Env: env,
		Server: ServerConfig{
			Host:         getString("PERFSAGE_API_HOST", "0.0.0.0"),
			Port:         getInt("PERFSAGE_API_PORT", 8080),
			ReadTimeout:  getDuration("PERFSAGE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("PERFSAGE_API_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getDuration("PERFSAGE_API_IDLE_TIMEOUT", 60*time.Second),
		},
		AWS: AWSConfig{
			Region:            getString("AWS_DEFAULT_REGION", "us-east-1"),
			RoleARN:           getString("PERFSAGE_ROLE_ARN", ""),
			SessionName:       getString("PERFSAGE_STS_SESSION_NAME", "perfsage-api"),
			SessionDuration:   getDuration("PERFSAGE_STS_SESSION_DURATION", 15*time.Minute),
			ExpiryMargin:      getDuration("PERFSAGE_STS_EXPIRY_MARGIN", 5*time.Minute),
			AccessKeyID:       getString("AWS_DYNAMODB_KEY", ""),
			SecretAccessKey:   getString("AWS_DYNAMODB_SECRET", ""),
			UsageTable:        getString("DYNAMODB_USAGE_TABLE", "perfsage-usage"),
			SettingsTable:     getString("DYNAMODB_SETTINGS_TABLE", "perfsage-settings"),
			OperationTimeout:  getDuration("PERFSAGE_STORE_TIMEOUT", 5*time.Second),
			SecretsNamePrefix: getString("PERFSAGE_SECRETS_PREFIX", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:           getString("OPENAI_API_KEY", ""),
			BaseURL:          getString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:            getString("OPENAI_MODEL", "gpt-3.5-turbo-instruct"),
			Temperature:      getFloat("OPENAI_TEMPERATURE", 0),
			MaxTokens:        getInt("OPENAI_MAX_TOKENS", 1024),
			TopP:             getFloat("OPENAI_TOP_P", 1.0),
			FrequencyPenalty: getFloat("OPENAI_FREQUENCY_PENALTY", 0),
			PresencePenalty:  getFloat("OPENAI_PRESENCE_PENALTY", 0),
			RequestTimeout:   getDuration("OPENAI_REQUEST_TIMEOUT", 120*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret:      getString("PERFSAGE_SESSION_SECRET", "change-me-to-a-32-byte-secret"),
			SessionTTL:         getDuration("PERFSAGE_SESSION_TTL", 24*time.Hour),
			GitHubClientID:     getString("GITHUB_OAUTH_CLIENT_ID", ""),
			GitHubClientSecret: getString("GITHUB_OAUTH_CLIENT_SECRET", ""),
			CallbackURL:        getString("PERFSAGE_OAUTH_CALLBACK_URL", "http://localhost:8080/auth/callback"),
		},
		Quota: QuotaConfig{
			UploadCeiling: getInt("PERFSAGE_UPLOAD_CEILING", 10),
			MaxFileBytes:  int64(getInt("PERFSAGE_MAX_FILE_BYTES", 1024*1024)),
		},
		Analytics: AnalyticsConfig{
			CronSpec: getString("PERFSAGE_ANALYTICS_CRON", "@hourly"),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("PERFSAGE_METRICS_PATH", "/metrics"),
		},
		LogLevel: getString("PERFSAGE_LOG_LEVEL", "info"),
	}

	if cfg.AWS.RoleARN == "" {
		return Config{}, fmt.Errorf("PERFSAGE_ROLE_ARN is required")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
