package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	RedisURL                   string
	JWTSecretKey               string
	JWTExpireMinutes           int
	GeminiAPIKey               string
	GeminiModel                string
	GeminiBaseURL              string
	STTEnabled                 bool
	DefaultTranscribeLanguage  string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	AudioStorageDir            string
	DailyTopicTimezone         string
	DiscordToken               string
	DiscordResultChannelID     string
	BattleResultWebhookURL     string
	BattleResultWebhookSecret  string
	JudgeLockTTLSec            int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.DatabaseURL == "" && !c.IsDevelopment() {
		return fmt.Errorf("DATABASE_URL is required outside development")
	}
	if c.JWTExpireMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRE_MINUTES must be positive, got %d", c.JWTExpireMinutes)
	}
	if c.JudgeLockTTLSec <= 0 {
		return fmt.Errorf("JUDGE_LOCK_TTL_SEC must be positive, got %d", c.JudgeLockTTLSec)
	}
	if c.STTEnabled {
		if err := c.validateSpeech(); err != nil {
			return err
		}
	}
	if c.DiscordToken != "" && c.DiscordResultChannelID == "" {
		return fmt.Errorf("DISCORD_RESULT_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	if _, err := time.LoadLocation(c.DailyTopicTimezone); err != nil {
		return fmt.Errorf("DAILY_TOPIC_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.GoogleCloudProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when STT_ENABLED=true")
	}
	if c.GoogleCloudCredentialsJSON == "" {
		return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when STT_ENABLED=true")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "JWT_SECRET_KEY", value: c.JWTSecretKey},
		{name: "DEFAULT_TRANSCRIBE_LANGUAGE", value: c.DefaultTranscribeLanguage},
		{name: "AUDIO_STORAGE_DIR", value: c.AudioStorageDir},
		{name: "DAILY_TOPIC_TIMEZONE", value: c.DailyTopicTimezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

func (c *Config) JudgeLockTTL() time.Duration {
	return time.Duration(c.JudgeLockTTLSec) * time.Second
}

// DailyTopicLocation falls back to UTC when the zone cannot be loaded.
func (c *Config) DailyTopicLocation() *time.Location {
	loc, err := time.LoadLocation(c.DailyTopicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
