package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Queue  QueueConfig  `yaml:"queue"`
	Server ServerConfig `yaml:"server"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

// LLMConfig holds collaborator configuration
type LLMConfig struct {
	Provider           string        `yaml:"provider"` // "gemini" or "openai"
	Model              string        `yaml:"model"`
	APIKey             string        `yaml:"api_key"`
	BaseURL            string        `yaml:"base_url"` // openai-compatible endpoints only
	ExtractTemperature float32       `yaml:"extract_temperature"`
	RefineTemperature  float32       `yaml:"refine_temperature"`
	Timeout            time.Duration `yaml:"timeout"`
}

// QueueConfig holds extraction worker pool configuration
type QueueConfig struct {
	Workers int           `yaml:"workers"`
	Size    int           `yaml:"size"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	GRPCAddr        string        `yaml:"grpc_addr"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ExportConfig holds workbook output configuration
type ExportConfig struct {
	OutDir string `yaml:"out_dir"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	provider := strings.ToLower(getEnv("PRP_LLM_PROVIDER", ProviderGemini))
	apiKey := getEnv("PRP_LLM_API_KEY", "")
	if apiKey == "" {
		switch provider {
		case ProviderOpenAI:
			apiKey = getEnv("OPENAI_API_KEY", "")
		default:
			apiKey = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", ""))
		}
	}

	return &Config{
		LLM: LLMConfig{
			Provider:           provider,
			Model:              getEnv("PRP_LLM_MODEL", ""),
			APIKey:             apiKey,
			BaseURL:            getEnv("PRP_LLM_BASE_URL", ""),
			ExtractTemperature: getEnvAsFloat32("PRP_EXTRACT_TEMPERATURE", 0.1),
			RefineTemperature:  getEnvAsFloat32("PRP_REFINE_TEMPERATURE", 0.7),
			Timeout:            getEnvAsDuration("PRP_LLM_TIMEOUT", 60*time.Second),
		},
		Queue: QueueConfig{
			Workers: getEnvAsInt("PRP_QUEUE_WORKERS", 4),
			Size:    getEnvAsInt("PRP_QUEUE_SIZE", 256),
			Timeout: getEnvAsDuration("PRP_QUEUE_TIMEOUT", 2*time.Minute),
		},
		Server: ServerConfig{
			GRPCAddr:        getEnv("PRP_GRPC_ADDR", ":8080"),
			SessionTTL:      getEnvAsDuration("PRP_SESSION_TTL", 2*time.Hour),
			CleanupInterval: getEnvAsDuration("PRP_SESSION_CLEANUP", 10*time.Minute),
		},
		Export: ExportConfig{
			OutDir: getEnv("PRP_OUT_DIR", "."),
		},
		Log: LogConfig{
			Level:  getEnv("PRP_LOG_LEVEL", "info"),
			Format: getEnv("PRP_LOG_FORMAT", "text"),
		},
	}
}

// LoadFromFile overlays a YAML file on top of the environment configuration.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := LoadConfig()
	cfg.Merge(&fileCfg)
	return cfg, nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.LLM.Provider != "" {
		c.LLM.Provider = strings.ToLower(other.LLM.Provider)
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.BaseURL != "" {
		c.LLM.BaseURL = other.LLM.BaseURL
	}
	if other.LLM.ExtractTemperature != 0 {
		c.LLM.ExtractTemperature = other.LLM.ExtractTemperature
	}
	if other.LLM.RefineTemperature != 0 {
		c.LLM.RefineTemperature = other.LLM.RefineTemperature
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}

	if other.Queue.Workers != 0 {
		c.Queue.Workers = other.Queue.Workers
	}
	if other.Queue.Size != 0 {
		c.Queue.Size = other.Queue.Size
	}
	if other.Queue.Timeout != 0 {
		c.Queue.Timeout = other.Queue.Timeout
	}

	if other.Server.GRPCAddr != "" {
		c.Server.GRPCAddr = other.Server.GRPCAddr
	}
	if other.Server.SessionTTL != 0 {
		c.Server.SessionTTL = other.Server.SessionTTL
	}
	if other.Server.CleanupInterval != 0 {
		c.Server.CleanupInterval = other.Server.CleanupInterval
	}

	if other.Export.OutDir != "" {
		c.Export.OutDir = other.Export.OutDir
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. requireLLM is false for
// commands that never reach a collaborator.
func (c *Config) Validate(requireLLM bool) error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm provider %q", c.LLM.Provider), ErrInvalidInput)
	}
	if requireLLM && c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "an API key is required for provider "+c.LLM.Provider, ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "queue workers must be positive", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "PRP_GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
