// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the bot. Zero values fall back to package
// defaults inside each component.
type Config struct {
	DiscordToken     string
	DiscordChannelID string

	GeminiAPIKey string
	GeminiModel  string

	GitHubToken string
	VaultPath   string

	OGPTimeout     time.Duration
	GeminiTimeout  time.Duration
	MaxContentSize int64

	NetworkRetryCount int
	NetworkRetryDelay time.Duration
	PushRetryCount    int
	PushRetryDelay    time.Duration

	MaxConcurrent int
	MinTagCount   int
	MaxTagCount   int
}

// Load reads the environment into a Config. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		VaultPath:   getEnv("VAULT_PATH", "./vault"),

		OGPTimeout:     getEnvDuration("OGP_TIMEOUT", 10*time.Second),
		GeminiTimeout:  getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		MaxContentSize: int64(getEnvInt("MAX_CONTENT_SIZE", 10<<20)),

		NetworkRetryCount: getEnvInt("NETWORK_RETRY_COUNT", 3),
		NetworkRetryDelay: getEnvDuration("NETWORK_RETRY_DELAY", time.Second),
		PushRetryCount:    getEnvInt("PUSH_RETRY_COUNT", 3),
		PushRetryDelay:    getEnvDuration("PUSH_RETRY_DELAY", 2*time.Second),

		MaxConcurrent: getEnvInt("MAX_CONCURRENT", 3),
		MinTagCount:   getEnvInt("MIN_TAG_COUNT", 3),
		MaxTagCount:   getEnvInt("MAX_TAG_COUNT", 5),
	}
}

// Validate reports the first missing required credential.
func (c Config) Validate() error {
	switch {
	case c.DiscordToken == "":
		return errors.New("DISCORD_BOT_TOKEN is required")
	case c.DiscordChannelID == "":
		return errors.New("DISCORD_CHANNEL_ID is required")
	case c.GeminiAPIKey == "":
		return errors.New("GEMINI_API_KEY is required")
	case c.GitHubToken == "":
		return errors.New("GITHUB_TOKEN is required")
	}
	return nil
}

// ArticlesPath is the subdirectory of the vault that holds stored
// documents.
func (c Config) ArticlesPath() string {
	return filepath.Join(c.VaultPath, "articles")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
