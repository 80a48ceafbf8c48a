// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	FrontendURL     string        `yaml:"frontend_url"` // browser is sent here after the processor callback
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`    // exchanged for a session token at /admin/login
	JWTSecret  string        `yaml:"jwt_secret"` // HMAC secret of admin sessions
	SessionTTL time.Duration `yaml:"session_ttl"`
	ExtUserIDs []string      `yaml:"ext_user_ids"` // identities promoted to ADMIN on sync
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	ApplySchema bool   `yaml:"apply_schema"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables locks, rate limits and the catalog cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	Provider        string        `yaml:"provider"` // paystack | noop
	Currency        string        `yaml:"currency"`
	CallbackURL     string        `yaml:"callback_url"`
	VerifyTimeout   time.Duration `yaml:"verify_timeout"`
	DonationMinimum int64         `yaml:"donation_minimum"`
	InitRateLimit   int           `yaml:"init_rate_limit"` // initializations per user per minute
	Paystack        struct {
		SecretKey string `yaml:"secret_key"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"paystack"`
}

type StorageConfig struct {
	S3 struct {
		Endpoint     string        `yaml:"endpoint"`
		Region       string        `yaml:"region"`
		Bucket       string        `yaml:"bucket"`
		AccessKey    string        `yaml:"access_key"`
		SecretKey    string        `yaml:"secret_key"`
		UsePathStyle bool          `yaml:"use_path_style"`
		PresignTTL   time.Duration `yaml:"presign_ttl"`
	} `yaml:"s3"`
}

type NotifyConfig struct {
	Telegram struct {
		Token   string  `yaml:"token"`
		ChatIDs []int64 `yaml:"chat_ids"`
	} `yaml:"telegram"`
	Workers int `yaml:"workers"`
}

type SchedulerConfig struct {
	ReconcileEnabled  bool          `yaml:"reconcile_enabled"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileAfter    time.Duration `yaml:"reconcile_after"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads an optional .env next to the working directory, then the
// YAML file at path with ${VAR} references expanded from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	cfg.HTTP.FrontendURL = strings.TrimRight(cfg.HTTP.FrontendURL, "/")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "paystack"
	}
	cfg.Payment.Provider = strings.ToLower(cfg.Payment.Provider)
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "KES"
	}
	if cfg.Payment.CallbackURL == "" && cfg.HTTP.FrontendURL != "" {
		cfg.Payment.CallbackURL = cfg.HTTP.FrontendURL + "/payment/verify"
	}
	if cfg.Payment.VerifyTimeout <= 0 {
		cfg.Payment.VerifyTimeout = 15 * time.Second
	}
	if cfg.Payment.DonationMinimum <= 0 {
		cfg.Payment.DonationMinimum = 50
	}
	if cfg.Payment.InitRateLimit <= 0 {
		cfg.Payment.InitRateLimit = 10
	}
	if cfg.Payment.Paystack.BaseURL == "" {
		cfg.Payment.Paystack.BaseURL = "https://api.paystack.co"
	}
	if cfg.Storage.S3.PresignTTL <= 0 {
		cfg.Storage.S3.PresignTTL = 15 * time.Minute
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = time.Minute
	}
	if cfg.Scheduler.ReconcileAfter <= 0 {
		cfg.Scheduler.ReconcileAfter = 10 * time.Minute
	}
}

// Minimal validation
func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch cfg.Payment.Provider {
	case "paystack":
		if cfg.Payment.Paystack.SecretKey == "" {
			return errors.New("payment.paystack.secret_key is required")
		}
	case "noop":
	default:
		return fmt.Errorf("payment.provider %q is not supported", cfg.Payment.Provider)
	}
	if cfg.Admin.JWTSecret == "" {
		return errors.New("admin.jwt_secret is required")
	}
	if cfg.Storage.S3.Bucket != "" && cfg.Storage.S3.Region == "" {
		return errors.New("storage.s3.region is required when a bucket is set")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
