// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Server  ServerConfig            `mapstructure:"server"`
	CORS    CORSConfig              `mapstructure:"cors"`
	AmoCRM  AmoCRMConfig            `mapstructure:"amocrm"`
	Workers map[string]WorkerConfig `mapstructure:"workers"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Metrics MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig controls cross-origin access to the public endpoints.
// An empty AllowedOrigins list reflects whatever Origin the caller sends.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"` // seconds
}

// AmoCRMConfig holds the upstream CRM connection settings.
type AmoCRMConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	AccessToken     string `mapstructure:"access_token"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
	LeadConcurrency int    `mapstructure:"lead_concurrency"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
}

// WorkerConfig holds the settings applicable to every request handler.
type WorkerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
