package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		IdleTimeout    time.Duration `yaml:"idleTimeout"`
		MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	} `yaml:"server"`

	Shell struct {
		Port       int    `yaml:"port"`
		CookieName string `yaml:"cookieName"`
		// SessionIdle is how long an untouched shell session is kept.
		SessionIdle time.Duration `yaml:"sessionIdle"`
	} `yaml:"shell"`

	Static struct {
		Dir string `yaml:"dir"`
	} `yaml:"static"`

	Groq struct {
		BaseURL       string   `yaml:"baseURL"`
		Models        []string `yaml:"models"`
		MaxTokens     int      `yaml:"maxTokens"`
		Temperature   float32  `yaml:"temperature"`
		MaxToolRounds int      `yaml:"maxToolRounds"`
		// Timeout of 0 leaves the remote call unbounded.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"groq"`

	Search struct {
		Provider   string        `yaml:"provider"`
		BaseURL    string        `yaml:"baseURL"`
		MaxResults int           `yaml:"maxResults"`
		Timeout    time.Duration `yaml:"timeout"`
		UserAgent  string        `yaml:"userAgent"`
	} `yaml:"search"`

	Temp struct {
		Dir string `yaml:"dir"`
	} `yaml:"temp"`

	Minio struct {
		Enabled       bool          `yaml:"enabled"`
		Endpoint      string        `yaml:"endpoint"`
		AccessKey     string        `yaml:"accessKey"`
		SecretKey     string        `yaml:"secretKey"`
		BucketName    string        `yaml:"bucketName"`
		Region        string        `yaml:"region"`
		UseSSL        bool          `yaml:"useSSL"`
		PresignExpiry time.Duration `yaml:"presignExpiry"`
	} `yaml:"minio"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		PerMinute int `yaml:"perMinute"`
		Burst     int `yaml:"burst"`
	} `yaml:"rateLimit"`
}

// Search providers.
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchSearxng    = "searxng"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8000
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.MaxUploadBytes = 32 << 20
	c.Shell.Port = 8501
	c.Shell.CookieName = "medvision_session"
	c.Shell.SessionIdle = 30 * time.Minute
	c.Static.Dir = "frontend"
	c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	c.Groq.Models = []string{
		"meta-llama/llama-4-scout-17b-16e-instruct",
		"meta-llama/llama-4-maverick-17b-128e-instruct",
		"llama-3.2-11b-vision-preview",
	}
	c.Groq.MaxTokens = 2048
	c.Groq.MaxToolRounds = 6
	c.Search.Provider = SearchDuckDuckGo
	c.Search.BaseURL = "https://html.duckduckgo.com"
	c.Search.MaxResults = 5
	c.Search.Timeout = 20 * time.Second
	c.Search.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	c.Temp.Dir = os.TempDir()
	c.Minio.Region = "us-east-1"
	c.Minio.BucketName = "medvision-transient"
	c.Minio.PresignExpiry = 15 * time.Minute
	c.CORS.AllowedOrigins = []string{"*"}
	c.RateLimit.PerMinute = 30
	c.RateLimit.Burst = 5
	return &c
}

// Load baca file config.yaml di atas default, lalu .env dan environment.
// File yang tidak ada bukan error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found, using defaults", path)
	default:
		return nil, err
	}

	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Shell.Port = getEnvAsInt("SHELL_PORT", c.Shell.Port)
	c.Static.Dir = getEnv("STATIC_DIR", c.Static.Dir)
	c.Groq.BaseURL = getEnv("GROQ_BASE_URL", c.Groq.BaseURL)
	c.Search.Provider = getEnv("SEARCH_PROVIDER", c.Search.Provider)
	c.Search.BaseURL = getEnv("SEARCH_BASE_URL", c.Search.BaseURL)
	if v := os.Getenv("SEARXNG_URL"); v != "" {
		c.Search.Provider = SearchSearxng
		c.Search.BaseURL = v
	}
	c.Temp.Dir = getEnv("TEMP_DIR", c.Temp.Dir)
	c.Minio.Enabled = getEnvAsBool("MINIO_ENABLED", c.Minio.Enabled)
	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.BucketName = getEnv("MINIO_BUCKET", c.Minio.BucketName)
	c.RateLimit.PerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", c.RateLimit.PerMinute)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Shell.Port <= 0 {
		return fmt.Errorf("shell.port must be positive")
	}
	if c.Shell.SessionIdle <= 0 {
		return fmt.Errorf("shell.sessionIdle must be positive")
	}
	if c.Search.Provider != SearchDuckDuckGo && c.Search.Provider != SearchSearxng {
		return fmt.Errorf("unknown search provider %q (allowed: %s, %s)", c.Search.Provider, SearchDuckDuckGo, SearchSearxng)
	}
	if len(c.Groq.Models) == 0 {
		return fmt.Errorf("groq.models must list at least one model")
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		return fmt.Errorf("minio.endpoint is required when minio is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}
