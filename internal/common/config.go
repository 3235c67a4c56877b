package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Chart   ChartConfig
	Mail    MailConfig
}

// AppConfig holds service identity settings
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// StorageConfig holds upload/visualization directory settings
type StorageConfig struct {
	UploadsDir        string
	VisualizationsDir string
	CleanupMaxAge     time.Duration
	CleanupInterval   time.Duration // 0 disables the background sweep
}

// LLMConfig holds analyzer settings
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ChartConfig holds chart renderer settings
type ChartConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MailConfig holds SMTP delivery settings
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Audit Agent API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
			Debug:       getEnvAsBool("DEBUG", false),
		},
		Server: ServerConfig{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnvAsInt("API_PORT", 8000),
		},
		Storage: StorageConfig{
			UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
			VisualizationsDir: getEnv("VISUALIZATIONS_DIR", "visualizations"),
			CleanupMaxAge:     getEnvAsDuration("CLEANUP_MAX_AGE", 24*time.Hour),
			CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", 0),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			Temperature: getEnvAsFloat32("GROQ_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 60*time.Second),
		},
		Chart: ChartConfig{
			BaseURL: getEnv("CHART_BASE_URL", "https://quickchart.io"),
			Timeout: getEnvAsDuration("CHART_TIMEOUT", 20*time.Second),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("GMAIL_USER", ""),
			Password: getEnv("GMAIL_APP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
			Timeout:  getEnvAsDuration("MAIL_TIMEOUT", 30*time.Second),
		},
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}
	return cfg
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &AppError{Code: "CONFIG_ERROR", Message: "API_PORT must be a valid port", Kind: ErrConfig}
	}
	if c.Storage.UploadsDir == "" {
		return &AppError{Code: "CONFIG_ERROR", Message: "UPLOADS_DIR is required", Kind: ErrConfig}
	}
	if c.Storage.VisualizationsDir == "" {
		return &AppError{Code: "CONFIG_ERROR", Message: "VISUALIZATIONS_DIR is required", Kind: ErrConfig}
	}
	if c.Storage.CleanupMaxAge < 0 {
		return &AppError{Code: "CONFIG_ERROR", Message: "CLEANUP_MAX_AGE must not be negative", Kind: ErrConfig}
	}
	return nil
}

// Placeholder values from sample env files count as unset.
var placeholderValues = map[string]struct{}{
	"your_groq_api_key_here": {},
	"your_email@gmail.com":   {},
	"your_app_password_here": {},
}

func isConfigured(value string) bool {
	if value == "" {
		return false
	}
	_, placeholder := placeholderValues[value]
	return !placeholder
}

// GroqEnabled reports whether the analyzer collaborator is usable.
func (c *Config) GroqEnabled() bool {
	return isConfigured(c.LLM.APIKey)
}

// MailEnabled reports whether the email collaborator is usable.
func (c *Config) MailEnabled() bool {
	return isConfigured(c.Mail.Username) && isConfigured(c.Mail.Password)
}

// MaskedGroqKey returns the API key safe for logs.
func (c *Config) MaskedGroqKey() string {
	key := c.LLM.APIKey
	if !isConfigured(key) || len(key) < 12 {
		return "NOT_SET"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// StartupStatus summarizes which optional collaborators are enabled.
type StartupStatus struct {
	GroqEnabled bool
	MailEnabled bool
	Warnings    []string
}

// StartupStatus reports collaborator enablement and setup warnings for the
// startup log. Missing collaborators are warnings, not errors: the service
// runs with those stages disabled.
func (c *Config) StartupStatus() StartupStatus {
	st := StartupStatus{
		GroqEnabled: c.GroqEnabled(),
		MailEnabled: c.MailEnabled(),
	}
	if !st.GroqEnabled {
		st.Warnings = append(st.Warnings, "GROQ_API_KEY not configured; document analysis is disabled")
	}
	if !st.MailEnabled {
		st.Warnings = append(st.Warnings, "GMAIL_USER/GMAIL_APP_PASSWORD not configured; email delivery is disabled")
	}
	return st
}
