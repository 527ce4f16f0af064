// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LeadsFetchWorker is the workers.* key of the GET /leads handler.
const LeadsFetchWorker = "leads-fetch"

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)
	return v
}

// setViperDefaults covers the boolean switches whose zero value is not the
// default, so applyDefaults cannot tell "unset" from "false".
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "amocrm-leads")
	// registered so AutomaticEnv can see AMOCRM_BASE_URL / AMOCRM_ACCESS_TOKEN
	v.SetDefault("amocrm.base_url", "")
	v.SetDefault("amocrm.access_token", "")
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("workers."+LeadsFetchWorker+".enabled", true)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("Loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the plain environment names used by earlier
// deployments of the service.
func overrideEmptyConfig(cfg *Config) {
	if cfg.AmoCRM.BaseURL == "" {
		if val := os.Getenv("BASE_URL"); val != "" {
			cfg.AmoCRM.BaseURL = val
		}
	}
	if cfg.AmoCRM.AccessToken == "" {
		if val := os.Getenv("ACCESS_TOKEN"); val != "" {
			cfg.AmoCRM.AccessToken = val
		}
	}
	if cfg.Server.Port == 0 {
		if val := os.Getenv("PORT"); val != "" {
			if port, err := strconv.Atoi(val); err == nil {
				cfg.Server.Port = port
			}
		}
	}

	cfg.AmoCRM.BaseURL = strings.TrimRight(cfg.AmoCRM.BaseURL, "/")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = 3600
	}

	if cfg.AmoCRM.Timeout == 0 {
		cfg.AmoCRM.Timeout = 30000
	}
	if cfg.AmoCRM.LeadConcurrency == 0 {
		cfg.AmoCRM.LeadConcurrency = 1
	}
	if cfg.AmoCRM.MaxBodyBytes == 0 {
		cfg.AmoCRM.MaxBodyBytes = 10 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.AmoCRM.BaseURL == "" {
		return fmt.Errorf("amocrm.base_url is required")
	}
	u, err := url.Parse(cfg.AmoCRM.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("amocrm.base_url must be an absolute http(s) URL, got %q", cfg.AmoCRM.BaseURL)
	}
	if cfg.AmoCRM.AccessToken == "" {
		return fmt.Errorf("amocrm.access_token is required")
	}
	if cfg.AmoCRM.LeadConcurrency < 1 {
		return fmt.Errorf("amocrm.lead_concurrency must be at least 1")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves handler-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled: true,
		Timeout: 30000,
	}
}

// IsWorkerEnabled checks if a specific handler is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
