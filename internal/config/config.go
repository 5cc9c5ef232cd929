// Package config loads CampusMart settings from the environment, an
// optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
)

const (
	EnvPrefix  = "CAMPUSMART"
	envCfgFile = EnvPrefix + "_CONFIG"

	minSecretLen = 32
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	LogLevel    string `mapstructure:"log_level"`
	EmailDomain string `mapstructure:"required_email_domain"`

	FetchLatency   time.Duration `mapstructure:"fetch_latency"`
	CreateLatency  time.Duration `mapstructure:"create_latency"`
	LoginLatency   time.Duration `mapstructure:"login_latency"`
	RemoveLatency  time.Duration `mapstructure:"remove_latency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	DatabaseURL string `mapstructure:"database_url"`
	SeedDemo    bool   `mapstructure:"seed_demo"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	MetricsToken    string `mapstructure:"metrics_token"`
	LoginRatePerMin int    `mapstructure:"login_rate_per_min"`

	// ServerURL points the terminal client at a marketplace service. Empty
	// runs the access layer in process.
	ServerURL   string `mapstructure:"server_url"`
	CLILogLevel string `mapstructure:"cli_log_level"`
}

func defaults(v *viper.Viper) {
	lat := access.DefaultLatency()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("required_email_domain", auth.DefaultEmailDomain)
	v.SetDefault("fetch_latency", lat.Fetch)
	v.SetDefault("create_latency", lat.Create)
	v.SetDefault("login_latency", lat.Login)
	v.SetDefault("remove_latency", lat.Remove)
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("database_url", "")
	v.SetDefault("seed_demo", true)
	v.SetDefault("jwt_secret", "campusmart-dev-secret-change-me!")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_token", "")
	v.SetDefault("login_rate_per_min", 5)
	v.SetDefault("server_url", "")
	v.SetDefault("cli_log_level", "error")
}

// Load reads envFiles (".env" when none are given, skipped if missing),
// then the YAML file named by CAMPUSMART_CONFIG, then CAMPUSMART_*
// variables. Later sources win.
func Load(envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return Config{}, err
	}

	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envCfgFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.EmailDomain = auth.NewDomainGate(cfg.EmailDomain).Suffix()
	return cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate checks the settings the marketplace service depends on.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("jwt_secret must be at least %d characters", minSecretLen))
	}
	for name, d := range map[string]time.Duration{
		"fetch_latency":  c.FetchLatency,
		"create_latency": c.CreateLatency,
		"login_latency":  c.LoginLatency,
		"remove_latency": c.RemoveLatency,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.LoginRatePerMin < 0 {
		errs = append(errs, errors.New("login_rate_per_min must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalid}, errs...)...)
}

func (c Config) Latency() access.Latency {
	return access.Latency{
		Fetch:  c.FetchLatency,
		Create: c.CreateLatency,
		Login:  c.LoginLatency,
		Remove: c.RemoveLatency,
	}
}

func (c Config) Gate() auth.DomainGate { return auth.NewDomainGate(c.EmailDomain) }
