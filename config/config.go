package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Upload failure policies
const (
	// UploadPolicyFail treats a failed avatar upload as a failed submission.
	UploadPolicyFail = "fail"
	// UploadPolicyLog accepts the submission and reports the upload error alongside it.
	UploadPolicyLog = "log"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Submission    SubmissionConfig
	Drafts        DraftsConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type StorageConfig struct {
	AccessKeyID         string
	SecretAccessKey     string
	BucketName          string
	Endpoint            string
	Region              string
	UsePathStyle        bool
	CacheControlSeconds int
	HTTPTimeoutSeconds  int
	ProbeOnStartup      bool
}

type SubmissionConfig struct {
	UploadFailurePolicy string
}

type DraftsConfig struct {
	TTLMinutes int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("STORAGE_BUCKET_NAME", "forms-nextjs")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_PATH_STYLE", false)
	v.SetDefault("STORAGE_CACHE_CONTROL_SECONDS", 3600)
	v.SetDefault("STORAGE_HTTP_TIMEOUT_SECONDS", 60)
	v.SetDefault("STORAGE_PROBE_ON_STARTUP", true)
	v.SetDefault("UPLOAD_FAILURE_POLICY", UploadPolicyFail)
	v.SetDefault("DRAFT_TTL_MINUTES", 30)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "") // OTLP over HTTP, tracing disabled when empty
	v.SetDefault("O11Y_BE_SERVICE_NAME", "signup-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "formsnap")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "signup-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Storage: StorageConfig{
			AccessKeyID:         v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey:     v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			BucketName:          v.GetString("STORAGE_BUCKET_NAME"),
			Endpoint:            v.GetString("STORAGE_ENDPOINT"),
			Region:              v.GetString("STORAGE_REGION"),
			UsePathStyle:        v.GetBool("STORAGE_USE_PATH_STYLE"),
			CacheControlSeconds: v.GetInt("STORAGE_CACHE_CONTROL_SECONDS"),
			HTTPTimeoutSeconds:  v.GetInt("STORAGE_HTTP_TIMEOUT_SECONDS"),
			ProbeOnStartup:      v.GetBool("STORAGE_PROBE_ON_STARTUP"),
		},
		Submission: SubmissionConfig{
			UploadFailurePolicy: strings.ToLower(strings.TrimSpace(v.GetString("UPLOAD_FAILURE_POLICY"))),
		},
		Drafts: DraftsConfig{
			TTLMinutes: v.GetInt("DRAFT_TTL_MINUTES"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping empty items
func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	// Object storage
	if c.Storage.BucketName == "" {
		return fmt.Errorf("STORAGE_BUCKET_NAME is required")
	}
	if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
		return fmt.Errorf("STORAGE_ACCESS_KEY_ID and STORAGE_SECRET_ACCESS_KEY are required")
	}
	if c.Storage.CacheControlSeconds <= 0 {
		return fmt.Errorf("STORAGE_CACHE_CONTROL_SECONDS must be positive")
	}

	switch c.Submission.UploadFailurePolicy {
	case UploadPolicyFail, UploadPolicyLog:
	default:
		return fmt.Errorf("UPLOAD_FAILURE_POLICY must be %q or %q, got %q",
			UploadPolicyFail, UploadPolicyLog, c.Submission.UploadFailurePolicy)
	}

	if c.Drafts.TTLMinutes <= 0 {
		return fmt.Errorf("DRAFT_TTL_MINUTES must be positive")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// UploadFailureIsFatal reports whether a failed avatar upload fails the submission
func (c *Config) UploadFailureIsFatal() bool {
	return c.Submission.UploadFailurePolicy != UploadPolicyLog
}
