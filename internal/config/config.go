package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds every runtime setting of ttsdeck.
type Config struct {
	API   APIConfig
	Audio AudioConfig
	App   AppConfig
}

// APIConfig points at the TTS service.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AudioConfig controls where payloads are cached and how they are played.
type AudioConfig struct {
	Dir    string
	Keep   int      // cached payloads kept on disk; 0 keeps everything
	Player []string // command + args; empty means auto-detect
}

type AppConfig struct {
	Env         string
	LogLevel    string
	LogFile     string
	Theme       string
	MetricsAddr string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// API
	cfg.API.BaseURL = strings.TrimRight(getEnvDefault("TTS_BASE_URL", "http://localhost:8081"), "/")
	cfg.API.Timeout = time.Duration(getEnvIntDefault("TTS_HTTP_TIMEOUT", 120)) * time.Second

	// Audio
	cfg.Audio.Dir = getEnvDefault("TTS_AUDIO_DIR", filepath.Join(os.TempDir(), "ttsdeck"))
	cfg.Audio.Keep = getEnvIntDefault("TTS_AUDIO_KEEP", 50)
	cfg.Audio.Player = strings.Fields(os.Getenv("TTS_PLAYER"))

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.LogFile = getEnvDefault("LOG_FILE", filepath.Join("logs", "ttsdeck.log"))
	cfg.App.Theme = getEnvDefault("TTSDECK_THEME", "classic")
	cfg.App.MetricsAddr = os.Getenv("TTS_METRICS_ADDR")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("TTS_BASE_URL is not set")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("TTS_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("TTS_BASE_URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("TTS_BASE_URL has no host")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("TTS_HTTP_TIMEOUT must be positive")
	}
	if cfg.Audio.Dir == "" {
		return fmt.Errorf("TTS_AUDIO_DIR is not set")
	}
	if cfg.Audio.Keep < 0 {
		return fmt.Errorf("TTS_AUDIO_KEEP must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// GetLogLevel maps LOG_LEVEL onto a zap level.
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}

// NewLogger builds the diagnostic logger. The TUI owns stdout, so everything
// goes to LogFile.
func (c *AppConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = c.GetLogLevel()
	if dir := filepath.Dir(c.LogFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	zc.OutputPaths = []string{c.LogFile}
	zc.ErrorOutputPaths = []string{c.LogFile}
	return zc.Build()
}
