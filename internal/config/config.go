package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type contextKey struct{}

var configKey = contextKey{}

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MediaFetchTimeout  time.Duration `yaml:"media_fetch_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	MaxMediaSize       int64         `yaml:"max_media_size"`
	LogLevel           string        `yaml:"log_level"`

	Analysis AnalysisConfig `yaml:"analysis"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Storage  StorageConfig  `yaml:"storage"`
}

type AnalysisConfig struct {
	SampleCount int `yaml:"sample_count"`
	PaletteSize int `yaml:"palette_size"`
	Workers     int `yaml:"workers"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
}

type StorageConfig struct {
	Type         string `yaml:"type"` // http, azure, local
	AzureAccount string `yaml:"azure_account"`
	AzureKey     string `yaml:"azure_key"`
	LocalRoot    string `yaml:"local_root"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path searches the working
// directory for inspector.yaml or inspector.yml.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv returns defaults overridden by the environment only
func LoadFromEnv() (*Config, error) {
	cfg := defaultConfig()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges of every setting
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxMediaSize <= 0 {
		return fmt.Errorf("MAX_MEDIA_SIZE must be > 0 (got %d)", c.MaxMediaSize)
	}
	if c.RequestTimeout <= 0 || c.MediaFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			c.RequestTimeout, c.MediaFetchTimeout)
	}
	if c.Analysis.SampleCount < 1 || c.Analysis.SampleCount > 256 {
		return fmt.Errorf("SAMPLE_COUNT must be between 1 and 256 (got %d)", c.Analysis.SampleCount)
	}
	if c.Analysis.PaletteSize < 1 || c.Analysis.PaletteSize > 16 {
		return fmt.Errorf("PALETTE_SIZE must be between 1 and 16 (got %d)", c.Analysis.PaletteSize)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("ANALYSIS_WORKERS must be >= 0 (got %d)", c.Analysis.Workers)
	}
	switch c.Storage.Type {
	case "http":
	case "local":
		if strings.TrimSpace(c.Storage.LocalRoot) == "" {
			return fmt.Errorf("local storage requires LOCAL_STORAGE_ROOT")
		}
	case "azure":
		if c.Storage.AzureAccount == "" || c.Storage.AzureKey == "" {
			return fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE: %q", c.Storage.Type)
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     60 * time.Second,
		MediaFetchTimeout:  30 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,  // 10MB
		MaxMediaSize:       512 * 1024 * 1024, // 512MB
		LogLevel:           "info",
		Analysis: AnalysisConfig{
			SampleCount: 16,
			PaletteSize: 5,
			Workers:     0,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
		},
		Storage: StorageConfig{
			Type: "http",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MediaFetchTimeout = parseDurationOrDefault("MEDIA_FETCH_TIMEOUT", cfg.MediaFetchTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.MaxMediaSize = parseIntOrDefault("MAX_MEDIA_SIZE", cfg.MaxMediaSize)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Analysis.SampleCount = int(parseIntOrDefault("SAMPLE_COUNT", int64(cfg.Analysis.SampleCount)))
	cfg.Analysis.PaletteSize = int(parseIntOrDefault("PALETTE_SIZE", int64(cfg.Analysis.PaletteSize)))
	cfg.Analysis.Workers = int(parseIntOrDefault("ANALYSIS_WORKERS", int64(cfg.Analysis.Workers)))
	cfg.FFmpeg.BinaryPath = getEnvOrDefault("FFMPEG_PATH", cfg.FFmpeg.BinaryPath)
	cfg.FFmpeg.ProbePath = getEnvOrDefault("FFPROBE_PATH", cfg.FFmpeg.ProbePath)
	cfg.Storage.Type = strings.ToLower(getEnvOrDefault("STORAGE_TYPE", cfg.Storage.Type))
	cfg.Storage.AzureAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.Storage.AzureAccount)
	cfg.Storage.AzureKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.Storage.AzureKey)
	cfg.Storage.LocalRoot = getEnvOrDefault("LOCAL_STORAGE_ROOT", cfg.Storage.LocalRoot)
}

func findConfigFile() string {
	candidates := []string{
		"./inspector.yaml",
		"./inspector.yml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
