package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/debaide/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	HTTPAddr                   string `env:"HTTP_ADDR" envDefault:":8000"`
	DatabaseURL                string `env:"DATABASE_URL"`
	RedisURL                   string `env:"REDIS_URL"`
	JWTSecretKey               string `env:"JWT_SECRET_KEY,required"`
	JWTExpireMinutes           int    `env:"JWT_EXPIRE_MINUTES" envDefault:"10080"`
	GeminiAPIKey               string `env:"GEMINI_API_KEY"`
	GeminiModel                string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL              string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	STTEnabled                 bool   `env:"STT_ENABLED" envDefault:"false"`
	DefaultTranscribeLanguage  string `env:"DEFAULT_TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"us"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	AudioStorageDir            string `env:"AUDIO_STORAGE_DIR" envDefault:"./storage/audio"`
	DailyTopicTimezone         string `env:"DAILY_TOPIC_TIMEZONE" envDefault:"UTC"`
	DiscordToken               string `env:"DISCORD_TOKEN"`
	DiscordResultChannelID     string `env:"DISCORD_RESULT_CHANNEL_ID"`
	BattleResultWebhookURL     string `env:"BATTLE_RESULT_WEBHOOK_URL"`
	BattleResultWebhookSecret  string `env:"BATTLE_RESULT_WEBHOOK_SECRET"`
	JudgeLockTTLSec            int    `env:"JUDGE_LOCK_TTL_SEC" envDefault:"120"`
}

func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		DatabaseURL:                raw.DatabaseURL,
		RedisURL:                   raw.RedisURL,
		JWTSecretKey:               raw.JWTSecretKey,
		JWTExpireMinutes:           raw.JWTExpireMinutes,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiModel:                raw.GeminiModel,
		GeminiBaseURL:              raw.GeminiBaseURL,
		STTEnabled:                 raw.STTEnabled,
		DefaultTranscribeLanguage:  raw.DefaultTranscribeLanguage,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		AudioStorageDir:            raw.AudioStorageDir,
		DailyTopicTimezone:         raw.DailyTopicTimezone,
		DiscordToken:               raw.DiscordToken,
		DiscordResultChannelID:     raw.DiscordResultChannelID,
		BattleResultWebhookURL:     raw.BattleResultWebhookURL,
		BattleResultWebhookSecret:  raw.BattleResultWebhookSecret,
		JudgeLockTTLSec:            raw.JudgeLockTTLSec,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
