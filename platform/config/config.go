// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// OpenAIConfig provides settings for the LLM client.
type OpenAIConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
}

// EvolutionConfig provides settings for the Evolution API WhatsApp gateway.
type EvolutionConfig interface {
	GetEvolutionBaseURL() string
	GetEvolutionAPIKey() string
	GetEvolutionInstanceName() string
}

// WebhookConfig provides settings for inbound webhook verification and limits.
type WebhookConfig interface {
	GetEvolutionWebhookSecret() string
	GetWebhookRegisteredPerMinute() int
	GetWebhookAnonymousPerMinute() int
}

// InternalAuthConfig provides the shared secret for service-to-service calls.
type InternalAuthConfig interface {
	GetInternalFunctionSecret() string
}

// EmailConfig provides SMTP settings for operational alert mail.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetOpsAlertAddress() string
}

// SchedulerConfig provides settings for background job processing.
type SchedulerConfig interface {
	RedisConfig
	GetProactiveSweepInterval() time.Duration
	GetCoachTimezone() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	RedisURL                   string
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	OpenAIAPIKey               string
	OpenAIBaseURL              string
	OpenAIModel                string
	EvolutionBaseURL           string
	EvolutionAPIKey            string
	EvolutionInstanceName      string
	EvolutionWebhookSecret     string
	WebhookRegisteredPerMinute int
	WebhookAnonymousPerMinute  int
	InternalFunctionSecret     string
	EmailEnabled               bool
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	OpsAlertAddress            string
	ProactiveSweepInterval     time.Duration
	CoachTimezone              string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// OpenAIConfig implementation
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string   { return c.OpenAIModel }

// EvolutionConfig implementation
func (c *Config) GetEvolutionBaseURL() string      { return c.EvolutionBaseURL }
func (c *Config) GetEvolutionAPIKey() string       { return c.EvolutionAPIKey }
func (c *Config) GetEvolutionInstanceName() string { return c.EvolutionInstanceName }

// WebhookConfig implementation
func (c *Config) GetEvolutionWebhookSecret() string   { return c.EvolutionWebhookSecret }
func (c *Config) GetWebhookRegisteredPerMinute() int  { return c.WebhookRegisteredPerMinute }
func (c *Config) GetWebhookAnonymousPerMinute() int   { return c.WebhookAnonymousPerMinute }

// InternalAuthConfig implementation
func (c *Config) GetInternalFunctionSecret() string { return c.InternalFunctionSecret }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool        { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetOpsAlertAddress() string   { return c.OpsAlertAddress }

// SchedulerConfig implementation
func (c *Config) GetProactiveSweepInterval() time.Duration { return c.ProactiveSweepInterval }
func (c *Config) GetCoachTimezone() string                 { return c.CoachTimezone }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		RedisURL:                   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:              getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EvolutionBaseURL:           strings.TrimRight(getEnv("EVOLUTION_API_BASE_URL", ""), "/"),
		EvolutionAPIKey:            getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstanceName:      getEnv("EVOLUTION_INSTANCE_NAME", ""),
		EvolutionWebhookSecret:     getEnv("EVOLUTION_API_SECRET", ""),
		WebhookRegisteredPerMinute: mustInt(getEnv("WEBHOOK_REGISTERED_PER_MINUTE", "10"), 10),
		WebhookAnonymousPerMinute:  mustInt(getEnv("WEBHOOK_ANONYMOUS_PER_MINUTE", "3"), 3),
		InternalFunctionSecret:     getEnv("INTERNAL_FUNCTION_SECRET", ""),
		EmailEnabled:               emailEnabled && smtpHost != "",
		SMTPHost:                   smtpHost,
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Vida Smart Coach"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		OpsAlertAddress:            getEnv("OPS_ALERT_ADDRESS", ""),
		ProactiveSweepInterval:     mustDuration(getEnv("PROACTIVE_SWEEP_INTERVAL", "1h")),
		CoachTimezone:              getEnv("COACH_TIMEZONE", "America/Sao_Paulo"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EvolutionWebhookSecret == "" {
		return nil, fmt.Errorf("EVOLUTION_API_SECRET is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.EmailEnabled && cfg.OpsAlertAddress == "" {
		return nil, fmt.Errorf("OPS_ALERT_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string, fallback int) int {
	result, err := strconv.Atoi(value)
	if err != nil || result <= 0 {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
