package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	AI struct {
		Provider        string  `yaml:"provider"` // groq | ollama
		Enabled         bool    `yaml:"enabled"`
		Temperature     float32 `yaml:"temperature"`
		MaxTokens       int     `yaml:"maxTokens"`
		RetryAttempts   int     `yaml:"retryAttempts"`
		CooldownSeconds int     `yaml:"cooldownSeconds"`

		Groq struct {
			BaseURL string `yaml:"baseURL"`
			Model   string `yaml:"model"`
			APIKey  string `yaml:"apiKey"`  // single-key mode
			UsePool bool   `yaml:"usePool"` // rotate pooled keys instead
		} `yaml:"groq"`

		Ollama struct {
			Endpoint       string `yaml:"endpoint"`
			Model          string `yaml:"model"`
			TimeoutSeconds int    `yaml:"timeoutSeconds"`
		} `yaml:"ollama"`

		Analysis struct {
			Enabled      bool    `yaml:"enabled"`
			Temperature  float32 `yaml:"temperature"`
			CustomPrompt string  `yaml:"customPrompt"`
		} `yaml:"analysis"`
	} `yaml:"ai"`

	// Fallback keys seed the in-memory pool when the database is unreachable.
	FallbackKeys []struct {
		Secret string `yaml:"secret"`
		Label  string `yaml:"label"`
	} `yaml:"fallbackKeys"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		// tenant name -> admin API key
		Keys map[string]string `yaml:"keys"`
	} `yaml:"auth"`

	Vocabulary struct {
		Categories []struct {
			Label    string   `yaml:"label"`
			Keywords []string `yaml:"keywords"`
		} `yaml:"categories"`
		Actions []struct {
			Label string `yaml:"label"`
		} `yaml:"actions"`
	} `yaml:"vocabulary"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 8192
	}
	if c.AI.RetryAttempts == 0 {
		c.AI.RetryAttempts = 3
	}
	if c.AI.CooldownSeconds == 0 {
		c.AI.CooldownSeconds = 60
	}
	if c.AI.Groq.BaseURL == "" {
		c.AI.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.AI.Groq.Model == "" {
		c.AI.Groq.Model = "llama-3.1-8b-instant"
	}
	if c.AI.Ollama.Endpoint == "" {
		c.AI.Ollama.Endpoint = "http://127.0.0.1:11434"
	}
	if c.AI.Ollama.Model == "" {
		c.AI.Ollama.Model = "ministral-3:3b"
	}
	if c.AI.Ollama.TimeoutSeconds == 0 {
		c.AI.Ollama.TimeoutSeconds = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// OllamaTimeout returns the client-side ceiling for local provider calls.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.AI.Ollama.TimeoutSeconds) * time.Second
}

// Cooldown returns the rate-limit cool-down window applied when the
// provider does not report a retry-after value.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.AI.CooldownSeconds) * time.Second
}
