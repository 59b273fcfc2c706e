// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package config loads Rentline configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML (CONFIG_PATH, config.yaml, /etc/rentline/config.yaml)
//  3. Environment Variables: explicit names mapped in envTransformFunc
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Data         DataConfig         `koanf:"data"`
	Uploads      UploadsConfig      `koanf:"uploads"`
	Security     SecurityConfig     `koanf:"security"`
	Twilio       TwilioConfig       `koanf:"twilio"`
	AI           AIConfig           `koanf:"ai"`
	Conversation ConversationConfig `koanf:"conversation"`
	Analytics    AnalyticsConfig    `koanf:"analytics"`
	Notify       NotifyConfig       `koanf:"notify"`
	Audit        AuditConfig        `koanf:"audit"`
	Backup       BackupConfig       `koanf:"backup"`
	Similar      SimilarConfig      `koanf:"similar"`
	Digest       DigestConfig       `koanf:"digest"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// PublicURL is the externally reachable base URL. Twilio signs webhook
	// requests against it, so it must match the URL configured in the
	// Twilio console when signature validation is on.
	PublicURL string `koanf:"public_url"`

	// StaticDir serves a built frontend when set.
	StaticDir string `koanf:"static_dir"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig locates the JSON record files.
type DataConfig struct {
	Dir string `koanf:"dir"`

	// SeedSample loads a few demo listings when properties.json is empty.
	SeedSample bool `koanf:"seed_sample"`
}

// UploadsConfig controls property image uploads.
type UploadsConfig struct {
	Dir          string   `koanf:"dir"`
	MaxSizeMB    int      `koanf:"max_size_mb"`
	AllowedTypes []string `koanf:"allowed_types"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadsConfig) MaxBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}

// SecurityConfig holds admin authentication, CORS and rate limits.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	Users          []UserConfig  `koanf:"users"`
	CookieSecure   bool          `koanf:"cookie_secure"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// UserConfig is an additional staff account declared in the YAML file.
type UserConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Role     string `koanf:"role"`
}

// TwilioConfig configures the SMS, WhatsApp and voice channels.
type TwilioConfig struct {
	Enabled            bool    `koanf:"enabled"`
	AccountSID         string  `koanf:"account_sid"`
	AuthToken          string  `koanf:"auth_token"`
	FromNumber         string  `koanf:"from_number"`
	WhatsAppFrom       string  `koanf:"whatsapp_from"`
	ValidateSignatures bool    `koanf:"validate_signatures"`
	APIBaseURL         string  `koanf:"api_base_url"`
	SendRatePerSecond  float64 `koanf:"send_rate_per_second"`
	VoiceLanguage      string  `koanf:"voice_language"`
}

// AIConfig selects and configures the LLM reply generators.
type AIConfig struct {
	// Providers is the fallback order, e.g. ["openai", "gemini"]. Templates
	// always run last and are not listed.
	Providers []string `koanf:"providers"`

	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`
	OpenAIModel   string `koanf:"openai_model"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`

	// AgencyName is used in greetings and sign-offs.
	AgencyName string `koanf:"agency_name"`
}

// ConversationConfig tunes the lead-qualification engine.
type ConversationConfig struct {
	MaxHistory        int           `koanf:"max_history"`
	MaxSuggestions    int           `koanf:"max_suggestions"`
	FollowUpEnabled   bool          `koanf:"follow_up_enabled"`
	FollowUpAfter     time.Duration `koanf:"follow_up_after"`
	FollowUpInterval  time.Duration `koanf:"follow_up_interval"`
	ShareVoiceWithSMS bool          `koanf:"share_voice_with_sms"`
}

// AnalyticsConfig configures the event log.
type AnalyticsConfig struct {
	// Store is "badger" or "memory".
	Store      string        `koanf:"store"`
	Path       string        `koanf:"path"`
	Retention  time.Duration `koanf:"retention"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
	BufferSize int           `koanf:"buffer_size"`
}

// NotifyConfig configures staff notifications.
type NotifyConfig struct {
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUsername string        `koanf:"smtp_username"`
	SMTPPassword string        `koanf:"smtp_password"`
	EmailFrom    string        `koanf:"email_from"`
	EmailTo      []string      `koanf:"email_to"`
	WebhookURL   string        `koanf:"webhook_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// EmailEnabled reports whether SMTP delivery is configured.
func (n NotifyConfig) EmailEnabled() bool {
	return n.SMTPHost != "" && len(n.EmailTo) > 0
}

// AuditConfig controls the staff audit trail.
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxEvents   int           `koanf:"max_events"`
	Retention   time.Duration `koanf:"retention"`
	BufferSize  int           `koanf:"buffer_size"`
	LogToStdout bool          `koanf:"log_to_stdout"`
}

// BackupConfig controls data directory snapshots.
type BackupConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`

	// Interval between scheduled backups. Zero disables the schedule;
	// manual backups still work.
	Interval       time.Duration `koanf:"interval"`
	MaxCount       int           `koanf:"max_count"`
	MaxAge         time.Duration `koanf:"max_age"`
	IncludeUploads bool          `koanf:"include_uploads"`

	// CompressionLevel is a gzip level, -1 for the default.
	CompressionLevel int `koanf:"compression_level"`
}

// SimilarConfig controls similar-listing suggestions.
type SimilarConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval between co-visitation rebuilds; zero builds once at startup.
	Interval time.Duration `koanf:"interval"`
	Window   time.Duration `koanf:"window"`
	Lambda   float64       `koanf:"lambda"`
}

// DigestConfig controls the periodic staff summary email.
type DigestConfig struct {
	Enabled bool `koanf:"enabled"`

	// Schedule is a five-field cron expression evaluated in Timezone.
	Schedule   string `koanf:"schedule"`
	Timezone   string `koanf:"timezone"`
	WindowDays int    `koanf:"window_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}
