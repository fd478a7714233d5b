package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds server configuration. Zero timeouts leave the
// transport defaults in place.
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    string        `mapstructure:"body_limit" validate:"required"`
}

// StorageConfig points at the backing file holding the account collection
type StorageConfig struct {
	DataFile string `mapstructure:"data_file" validate:"required"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format   string `mapstructure:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	Filename string `mapstructure:"filename" validate:"required_if=Output file"`
}

// SecurityConfig holds CORS and rate limiting configuration.
// AllowedOrigins defaults to "*"; production deployments should pin it to
// the frontend origin.
type SecurityConfig struct {
	AllowedOrigins    []string      `mapstructure:"allowed_origins" validate:"min=1,dive,required"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from defaults, an optional config file, .env and
// the environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	path, err := filepath.Abs(cfg.Storage.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data file path: %w", err)
	}
	cfg.Storage.DataFile = path

	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden. The
// data file path is left relative to the working directory.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "accounts-api",
			Version:     "1.0.0",
			Environment: "development",
		},
		Server: ServerConfig{
			Port:      3000,
			Host:      "0.0.0.0",
			BodyLimit: "100K",
		},
		Storage: StorageConfig{
			DataFile: "id_list.json",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			AllowedOrigins:  []string{"*"},
			RateLimitWindow: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	// App defaults
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.version", d.App.Version)
	v.SetDefault("app.environment", d.App.Environment)

	// Server defaults
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.read_timeout", "0s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "0s")
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	// Storage defaults
	v.SetDefault("storage.data_file", d.Storage.DataFile)

	// Logger defaults
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.output", d.Logger.Output)
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.allowed_origins", strings.Join(d.Security.AllowedOrigins, ","))
	v.SetDefault("security.rate_limit_requests", 0)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"app.name":                     "APP_NAME",
		"app.version":                  "APP_VERSION",
		"app.environment":              "APP_ENVIRONMENT",
		"server.port":                  "SERVER_PORT",
		"server.host":                  "SERVER_HOST",
		"server.read_timeout":          "SERVER_READ_TIMEOUT",
		"server.write_timeout":         "SERVER_WRITE_TIMEOUT",
		"server.idle_timeout":          "SERVER_IDLE_TIMEOUT",
		"server.body_limit":            "SERVER_BODY_LIMIT",
		"storage.data_file":            "DATA_FILE",
		"logger.level":                 "LOG_LEVEL",
		"logger.format":                "LOG_FORMAT",
		"logger.output":                "LOG_OUTPUT",
		"logger.filename":              "LOG_FILENAME",
		"security.allowed_origins":     "CORS_ALLOWED_ORIGINS",
		"security.rate_limit_requests": "RATE_LIMIT_REQUESTS",
		"security.rate_limit_window":   "RATE_LIMIT_WINDOW",
		"metrics.enabled":              "ENABLE_METRICS",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// ErrRateLimitWindow is returned when rate limiting is enabled without a
// positive window to spread the requests over.
var ErrRateLimitWindow = errors.New("security.rate_limit_window must be positive when rate limiting is enabled")

// Validate checks the struct tags on cfg, then the rules that span fields
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Security.RateLimitRequests > 0 && cfg.Security.RateLimitWindow <= 0 {
		return ErrRateLimitWindow
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
