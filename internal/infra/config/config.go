// Package config provides application-wide configuration.
// Values come from an optional YAML file overridden by environment
// variables; every field has a safe default so the binary runs locally
// without any setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the aura server.
type Config struct {
	Host string `yaml:"host"` // AURA_HOST — default "0.0.0.0"
	Port int    `yaml:"port"` // AURA_PORT — default 8080

	DBPath string `yaml:"db_path"` // AURA_DB_PATH — default "aura.db"

	// DefaultProvider is the always-available fallback text provider.
	DefaultProvider string `yaml:"default_provider"` // AURA_DEFAULT_PROVIDER — default "gemini"

	GeminiModel     string `yaml:"gemini_model"`      // GEMINI_MODEL — default "gemini-2.0-flash-001"
	DeepSeekBaseURL string `yaml:"deepseek_base_url"` // DEEPSEEK_BASE_URL — default "https://api.deepseek.com/v1"
	DeepSeekModel   string `yaml:"deepseek_model"`    // DEEPSEEK_MODEL — default "deepseek-chat"

	StabilityURL   string `yaml:"stability_url"`   // STABILITY_URL
	HuggingFaceURL string `yaml:"huggingface_url"` // HUGGINGFACE_URL

	// ProviderTimeout bounds every single adapter attempt.
	ProviderTimeout time.Duration `yaml:"provider_timeout"` // AURA_PROVIDER_TIMEOUT — default 20s
}

const (
	envKeyHost            = "AURA_HOST"
	envKeyPort            = "AURA_PORT"
	envKeyDBPath          = "AURA_DB_PATH"
	envKeyDefaultProvider = "AURA_DEFAULT_PROVIDER"
	envKeyGeminiModel     = "GEMINI_MODEL"
	envKeyDeepSeekBaseURL = "DEEPSEEK_BASE_URL"
	envKeyDeepSeekModel   = "DEEPSEEK_MODEL"
	envKeyStabilityURL    = "STABILITY_URL"
	envKeyHuggingFaceURL  = "HUGGINGFACE_URL"
	envKeyProviderTimeout = "AURA_PROVIDER_TIMEOUT"
)

const (
	defaultStabilityURL   = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"
	defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/runwayml/stable-diffusion-v1-5"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		DBPath:          "aura.db",
		DefaultProvider: "gemini",
		GeminiModel:     "gemini-2.0-flash-001",
		DeepSeekBaseURL: "https://api.deepseek.com/v1",
		DeepSeekModel:   "deepseek-chat",
		StabilityURL:    defaultStabilityURL,
		HuggingFaceURL:  defaultHuggingFaceURL,
		ProviderTimeout: 20 * time.Second,
	}
}

// Load reads configuration from env vars on top of the defaults.
func Load() Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML config file, then applies env var overrides.
// A missing file is not an error; any other read/parse failure is.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env-only config
	case err != nil:
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	default:
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return cfg, fmt.Errorf("config: parse %q: %w", path, unmarshalErr)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Host = envOr(envKeyHost, c.Host)
	c.Port = envIntOr(envKeyPort, c.Port)
	c.DBPath = envOr(envKeyDBPath, c.DBPath)
	c.DefaultProvider = envOr(envKeyDefaultProvider, c.DefaultProvider)
	c.GeminiModel = envOr(envKeyGeminiModel, c.GeminiModel)
	c.DeepSeekBaseURL = envOr(envKeyDeepSeekBaseURL, c.DeepSeekBaseURL)
	c.DeepSeekModel = envOr(envKeyDeepSeekModel, c.DeepSeekModel)
	c.StabilityURL = envOr(envKeyStabilityURL, c.StabilityURL)
	c.HuggingFaceURL = envOr(envKeyHuggingFaceURL, c.HuggingFaceURL)
	c.ProviderTimeout = envDurationOr(envKeyProviderTimeout, c.ProviderTimeout)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
