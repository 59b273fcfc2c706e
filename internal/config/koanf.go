// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rentline/config.yaml",
	"/etc/rentline/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Uploads: UploadsConfig{
			Dir:          "./data/uploads",
			MaxSizeMB:    5,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		},
		Security: SecurityConfig{
			SessionTimeout:  12 * time.Hour,
			CookieSecure:    false,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Twilio: TwilioConfig{
			Enabled:            false,
			ValidateSignatures: true,
			APIBaseURL:         "https://api.twilio.com",
			SendRatePerSecond:  1,
			VoiceLanguage:      "en-US",
		},
		AI: AIConfig{
			Providers:     []string{},
			OpenAIBaseURL: "https://api.openai.com/v1",
			OpenAIModel:   "gpt-4o-mini",
			GeminiModel:   "gemini-2.0-flash",
			Timeout:       8 * time.Second,
			Temperature:   0.4,
			MaxTokens:     200,
			AgencyName:    "Rentline",
		},
		Conversation: ConversationConfig{
			MaxHistory:       50,
			MaxSuggestions:   3,
			FollowUpEnabled:  false,
			FollowUpAfter:    24 * time.Hour,
			FollowUpInterval: 15 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Store:      "badger",
			Path:       "./data/analytics",
			Retention:  180 * 24 * time.Hour,
			CacheTTL:   5 * time.Minute,
			BufferSize: 1024,
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
			Timeout:  10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			MaxEvents:  10000,
			Retention:  90 * 24 * time.Hour,
			BufferSize: 256,
		},
		Backup: BackupConfig{
			Enabled:          true,
			Dir:              "./backups",
			Interval:         24 * time.Hour,
			MaxCount:         7,
			MaxAge:           30 * 24 * time.Hour,
			IncludeUploads:   true,
			CompressionLevel: -1,
		},
		Similar: SimilarConfig{
			Enabled:  true,
			Interval: time.Hour,
			Window:   90 * 24 * time.Hour,
			Lambda:   0.7,
		},
		Digest: DigestConfig{
			Schedule:   "0 8 * * 1",
			Timezone:   "UTC",
			WindowDays: 7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, the optional YAML file and
// environment variables, in that order of increasing precedence, and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"uploads.allowed_types",
	"ai.providers",
	"notify.email_to",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",
	"public_url":   "server.public_url",
	"static_dir":   "server.static_dir",

	"data_dir":    "data.dir",
	"seed_sample": "data.seed_sample",

	"upload_dir":           "uploads.dir",
	"upload_max_size_mb":   "uploads.max_size_mb",
	"upload_allowed_types": "uploads.allowed_types",

	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"cookie_secure":       "security.cookie_secure",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"twilio_enabled":             "twilio.enabled",
	"twilio_account_sid":         "twilio.account_sid",
	"twilio_auth_token":          "twilio.auth_token",
	"twilio_from_number":         "twilio.from_number",
	"twilio_whatsapp_from":       "twilio.whatsapp_from",
	"twilio_validate_signatures": "twilio.validate_signatures",
	"twilio_api_base_url":        "twilio.api_base_url",
	"twilio_send_rate":           "twilio.send_rate_per_second",
	"twilio_voice_language":      "twilio.voice_language",

	"ai_providers":    "ai.providers",
	"openai_api_key":  "ai.openai_api_key",
	"openai_base_url": "ai.openai_base_url",
	"openai_model":    "ai.openai_model",
	"gemini_api_key":  "ai.gemini_api_key",
	"gemini_model":    "ai.gemini_model",
	"ai_timeout":      "ai.timeout",
	"ai_temperature":  "ai.temperature",
	"ai_max_tokens":   "ai.max_tokens",
	"agency_name":     "ai.agency_name",

	"conversation_max_history": "conversation.max_history",
	"conversation_suggestions": "conversation.max_suggestions",
	"follow_up_enabled":        "conversation.follow_up_enabled",
	"follow_up_after":          "conversation.follow_up_after",
	"follow_up_interval":       "conversation.follow_up_interval",
	"share_voice_with_sms":     "conversation.share_voice_with_sms",

	"analytics_store":       "analytics.store",
	"analytics_path":        "analytics.path",
	"analytics_retention":   "analytics.retention",
	"analytics_cache_ttl":   "analytics.cache_ttl",
	"analytics_buffer_size": "analytics.buffer_size",

	"smtp_host":          "notify.smtp_host",
	"smtp_port":          "notify.smtp_port",
	"smtp_username":      "notify.smtp_username",
	"smtp_password":      "notify.smtp_password",
	"notify_email_from":  "notify.email_from",
	"notify_email_to":    "notify.email_to",
	"notify_webhook_url": "notify.webhook_url",
	"notify_timeout":     "notify.timeout",

	"audit_enabled":       "audit.enabled",
	"audit_max_events":    "audit.max_events",
	"audit_retention":     "audit.retention",
	"audit_buffer_size":   "audit.buffer_size",
	"audit_log_to_stdout": "audit.log_to_stdout",

	"backup_enabled":           "backup.enabled",
	"backup_dir":               "backup.dir",
	"backup_interval":          "backup.interval",
	"backup_max_count":         "backup.max_count",
	"backup_max_age":           "backup.max_age",
	"backup_include_uploads":   "backup.include_uploads",
	"backup_compression_level": "backup.compression_level",

	"similar_enabled":  "similar.enabled",
	"similar_interval": "similar.interval",
	"similar_window":   "similar.window",
	"similar_lambda":   "similar.lambda",

	"digest_enabled":     "digest.enabled",
	"digest_schedule":    "digest.schedule",
	"digest_timezone":    "digest.timezone",
	"digest_window_days": "digest.window_days",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - TWILIO_AUTH_TOKEN -> twilio.auth_token
//   - AI_PROVIDERS -> ai.providers
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
