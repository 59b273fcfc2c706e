// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	minJWTSecretLength   = 32
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

var validRoles = map[string]bool{"admin": true, "agent": true}

var validProviders = map[string]bool{"openai": true, "gemini": true}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateData,
		c.validateSecurity,
		c.validateTwilio,
		c.validateAI,
		c.validateConversation,
		c.validateAnalytics,
		c.validateNotify,
		c.validateAudit,
		c.validateBackup,
		c.validateSimilar,
		c.validateDigest,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.PublicURL != "" {
		if err := validateHTTPURL("PUBLIC_URL", c.Server.PublicURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateData() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.Uploads.MaxSizeMB < 1 || c.Uploads.MaxSizeMB > 50 {
		return fmt.Errorf("UPLOAD_MAX_SIZE_MB must be between 1 and 50")
	}
	for _, t := range c.Uploads.AllowedTypes {
		if !strings.HasPrefix(t, "image/") {
			return fmt.Errorf("UPLOAD_ALLOWED_TYPES only accepts image types, got %q", t)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required")
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if !isBcryptHash(c.Security.AdminPassword) && len(c.Security.AdminPassword) < 12 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 12 characters")
	}
	seen := map[string]bool{c.Security.AdminUsername: true}
	for i, u := range c.Security.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("security.users[%d]: username and password are required", i)
		}
		if !validRoles[u.Role] {
			return fmt.Errorf("security.users[%d]: role must be admin or agent", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("security.users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed when ENVIRONMENT=production; " +
			"list the site origins explicitly")
	}
	return c.validateRateLimits()
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateTwilio() error {
	if !c.Twilio.Enabled {
		return nil
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required when TWILIO_ENABLED=true")
	}
	if c.Twilio.FromNumber == "" && c.Twilio.WhatsAppFrom == "" {
		return fmt.Errorf("TWILIO_FROM_NUMBER or TWILIO_WHATSAPP_FROM is required when TWILIO_ENABLED=true")
	}
	if c.Twilio.ValidateSignatures && c.Server.PublicURL == "" {
		return fmt.Errorf("PUBLIC_URL is required to validate Twilio signatures")
	}
	if c.Twilio.SendRatePerSecond <= 0 {
		return fmt.Errorf("TWILIO_SEND_RATE must be positive")
	}
	return validateHTTPURL("TWILIO_API_BASE_URL", c.Twilio.APIBaseURL)
}

func (c *Config) validateAI() error {
	for _, p := range c.AI.Providers {
		if !validProviders[p] {
			return fmt.Errorf("AI_PROVIDERS: unknown provider %q (use openai, gemini)", p)
		}
		if p == "openai" && c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when openai is listed in AI_PROVIDERS")
		}
		if p == "gemini" && c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when gemini is listed in AI_PROVIDERS")
		}
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateConversation() error {
	if c.Conversation.MaxHistory < 2 {
		return fmt.Errorf("CONVERSATION_MAX_HISTORY must be at least 2")
	}
	if c.Conversation.MaxSuggestions < 1 {
		return fmt.Errorf("CONVERSATION_SUGGESTIONS must be at least 1")
	}
	if c.Conversation.FollowUpEnabled {
		if c.Conversation.FollowUpAfter < time.Minute {
			return fmt.Errorf("FOLLOW_UP_AFTER must be at least 1m")
		}
		if c.Conversation.FollowUpInterval < time.Second {
			return fmt.Errorf("FOLLOW_UP_INTERVAL must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	switch c.Analytics.Store {
	case "memory":
	case "badger":
		if c.Analytics.Path == "" {
			return fmt.Errorf("ANALYTICS_PATH is required when ANALYTICS_STORE=badger")
		}
	default:
		return fmt.Errorf("ANALYTICS_STORE must be badger or memory")
	}
	if c.Analytics.BufferSize < 1 {
		return fmt.Errorf("ANALYTICS_BUFFER_SIZE must be positive")
	}
	if c.Analytics.CacheTTL <= 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.MaxEvents < 1 {
		return fmt.Errorf("AUDIT_MAX_EVENTS must be positive")
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if !c.Backup.Enabled {
		return nil
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required when backups are enabled")
	}
	if filepath.Clean(c.Backup.Dir) == filepath.Clean(c.Data.Dir) {
		return fmt.Errorf("BACKUP_DIR must differ from DATA_DIR")
	}
	if c.Backup.MaxCount < 1 {
		return fmt.Errorf("BACKUP_MAX_COUNT must be at least 1")
	}
	if c.Backup.CompressionLevel < -1 || c.Backup.CompressionLevel > 9 {
		return fmt.Errorf("BACKUP_COMPRESSION_LEVEL must be between -1 and 9")
	}
	if c.Backup.Interval != 0 && c.Backup.Interval < time.Minute {
		return fmt.Errorf("BACKUP_INTERVAL must be at least 1m")
	}
	return nil
}

func (c *Config) validateSimilar() error {
	if !c.Similar.Enabled {
		return nil
	}
	if c.Similar.Lambda <= 0 || c.Similar.Lambda > 1 {
		return fmt.Errorf("SIMILAR_LAMBDA must be in (0, 1]")
	}
	if c.Similar.Window <= 0 {
		return fmt.Errorf("SIMILAR_WINDOW must be positive")
	}
	if c.Similar.Interval < 0 {
		return fmt.Errorf("SIMILAR_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateDigest() error {
	if !c.Digest.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Digest.Schedule); err != nil {
		return fmt.Errorf("DIGEST_SCHEDULE: %w", err)
	}
	if _, err := time.LoadLocation(c.Digest.Timezone); err != nil {
		return fmt.Errorf("DIGEST_TIMEZONE: %w", err)
	}
	if c.Digest.WindowDays < 1 || c.Digest.WindowDays > 365 {
		return fmt.Errorf("DIGEST_WINDOW_DAYS must be between 1 and 365")
	}
	if !c.Notify.EmailEnabled() && c.Notify.WebhookURL == "" {
		return fmt.Errorf("DIGEST_ENABLED needs email (SMTP_HOST, NOTIFY_EMAIL_TO) or NOTIFY_WEBHOOK_URL")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.SMTPHost != "" && c.Notify.EmailFrom == "" {
		return fmt.Errorf("NOTIFY_EMAIL_FROM is required when SMTP_HOST is set")
	}
	if c.Notify.WebhookURL != "" {
		return validateHTTPURL("NOTIFY_WEBHOOK_URL", c.Notify.WebhookURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
