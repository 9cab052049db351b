package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Model settings for the hosted model client
type Model struct {
	Provider string        `yaml:"provider"` // gemini, openai, simulated
	APIKey   string        `yaml:"apiKey"`
	BaseURL  string        `yaml:"baseURL"`
	Name     string        `yaml:"name"`
	Timeout  time.Duration `yaml:"timeout"`

	// Fallback answers from the simulated client when the real one is unavailable.
	Fallback bool `yaml:"fallback"`

	RatePerMinute float64       `yaml:"ratePerMinute"`
	Burst         int           `yaml:"burst"`
	MaxWait       time.Duration `yaml:"maxWait"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		// signs web UI report downloads; random per process when empty
		DownloadSecret  string        `yaml:"downloadSecret"`
	} `yaml:"server"`

	Model Model `yaml:"model"`

	Imaging struct {
		Size        int   `yaml:"size"`
		JPEGQuality int   `yaml:"jpegQuality"`
		MaxUploadMB int64 `yaml:"maxUploadMB"`
	} `yaml:"imaging"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Auth struct {
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		RequestsPerMinute float64 `yaml:"requestsPerMinute"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql, postgres, kosong = tanpa arsip
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Default config, dipakai kalau file tidak ada
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 5 * time.Minute
	cfg.Server.ShutdownTimeout = 10 * time.Second

	cfg.Model.Provider = "gemini"
	cfg.Model.Timeout = 90 * time.Second
	cfg.Model.Fallback = true
	cfg.Model.MaxWait = 10 * time.Second

	cfg.Imaging.Size = 512
	cfg.Imaging.JPEGQuality = 90
	cfg.Imaging.MaxUploadMB = 20

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimit.RequestsPerMinute = 30
	cfg.RateLimit.Burst = 5

	cfg.Database.SSLMode = "disable"
	cfg.Minio.BucketName = "medical-reports"
	return &cfg
}

// Load baca file config.yaml, lalu .env dan environment variable.
// File yang tidak ada bukan error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// .env opsional, cuma buat development lokal
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		c.Model.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("MODEL_BASE_URL"); v != "" {
		c.Model.BaseURL = v
	}
	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case "gemini":
			c.Model.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "openai":
			c.Model.APIKey = firstEnv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOWNLOAD_SECRET"); v != "" {
		c.Server.DownloadSecret = v
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		c.Auth.APIKeys = splitList(v)
	}
	return nil
}

// Validate checks enum values and ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case "gemini", "openai", "simulated":
	default:
		errs = append(errs, fmt.Errorf("model.provider must be gemini, openai or simulated (got %q)", c.Model.Provider))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, errors.New("model.timeout must be positive"))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be mysql or postgres (got %q)", c.Database.Driver))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Imaging.Size < 1 {
		errs = append(errs, errors.New("imaging.size must be positive"))
	}
	if c.Imaging.JPEGQuality < 1 || c.Imaging.JPEGQuality > 100 {
		errs = append(errs, errors.New("imaging.jpegQuality must be between 1 and 100"))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text (got %q)", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ArchiveEnabled true kalau database dan minio dua-duanya diisi
func (c *Config) ArchiveEnabled() bool {
	return c.Database.Driver != "" && c.Minio.Endpoint != ""
}

// MaxUploadBytes batas ukuran upload dalam byte
func (c *Config) MaxUploadBytes() int64 {
	return c.Imaging.MaxUploadMB << 20
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
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + c.Database.SSLMode,
	}
	return u.String()
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
