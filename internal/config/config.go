package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-image-augmentor/internal/technique"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64
	DefaultKernel      technique.KernelSize
	Workers            int
	OutputFormat       string

	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials were supplied
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// DefaultParameters returns blur parameters carrying the configured default kernel
func (c *Config) DefaultParameters() map[string]interface{} {
	return map[string]interface{}{technique.KernelKey: int(c.DefaultKernel)}
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		Workers:             int(parseIntOrDefault("WORKERS", 0)),
		OutputFormat:        strings.ToLower(getEnvOrDefault("OUTPUT_FORMAT", "png")),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("WORKERS must be >= 0 (got %d)", cfg.Workers)
	}
	switch cfg.OutputFormat {
	case "png", "jpeg", "jpg", "bmp", "tiff", "gif":
	default:
		return nil, fmt.Errorf("unsupported OUTPUT_FORMAT: %q", cfg.OutputFormat)
	}

	kernel, err := strconv.Atoi(strings.TrimSpace(getEnvOrDefault("DEFAULT_KERNEL", "3")))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_KERNEL: %w", err)
	}
	if cfg.DefaultKernel, err = technique.ParseKernelSize(kernel); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_KERNEL: %w", err)
	}

	return cfg, nil
}

// LoadTechniqueParameters reads a YAML parameter file into a loose map.
// An empty path yields an empty map.
func LoadTechniqueParameters(path string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file %s: %w", path, err)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, nil
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
