package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host  string `yaml:"host"`
		Port  int    `yaml:"port"`
		Env   string `yaml:"env"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Database struct {
		Driver      string `yaml:"driver"` // postgres, mysql, sqlite
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Pipeline PipelineConfig `yaml:"pipeline"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	// First admin account, created at startup when both fields are set.
	FirstAdminUsername string `yaml:"first_admin_username"`
	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

// PipelineConfig configures the request interceptors.
type PipelineConfig struct {
	StartHour         int      `yaml:"start_hour"` // inclusive
	EndHour           int      `yaml:"end_hour"`   // exclusive
	GovernedPrefixes  []string `yaml:"governed_prefixes"`
	RateLimit         int      `yaml:"rate_limit"`
	RateWindowSeconds int      `yaml:"rate_window_seconds"`
	ProtectedPrefixes []string `yaml:"protected_prefixes"`
	AllowedRoles      []string `yaml:"allowed_roles"`
	RequestLogPath    string   `yaml:"request_log_path"`
}

const (
	DefaultStartHour         = 5
	DefaultEndHour           = 23
	DefaultRateLimit         = 5
	DefaultRateWindowSeconds = 60
	DefaultRequestLogPath    = "requests.log"
	DefaultConfigPath        = "config/config.yaml"
)

var (
	DefaultGovernedPrefixes  = []string{"/chats", "/api/conversations", "/api/messages"}
	DefaultProtectedPrefixes = []string{"/chats/admin", "/api/admin"}
	DefaultAllowedRoles      = []string{"admin", "moderator"}
)

var AppConfig *Config

// Default returns a config with every documented default filled in.
func Default() Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 4000
	cfg.Server.Env = "development"
	cfg.Database.Driver = "postgres"
	cfg.Database.AutoMigrate = true
	cfg.JWT.TTL = 60
	cfg.Pipeline = PipelineConfig{
		StartHour:         DefaultStartHour,
		EndHour:           DefaultEndHour,
		GovernedPrefixes:  append([]string(nil), DefaultGovernedPrefixes...),
		RateLimit:         DefaultRateLimit,
		RateWindowSeconds: DefaultRateWindowSeconds,
		ProtectedPrefixes: append([]string(nil), DefaultProtectedPrefixes...),
		AllowedRoles:      append([]string(nil), DefaultAllowedRoles...),
		RequestLogPath:    DefaultRequestLogPath,
	}
	cfg.CORS.AllowedOrigins = []string{"*"}
	return cfg
}

// Load reads the yaml file at path on top of the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found, using defaults and environment", path)
	default:
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads .env (if present) and the config file named by CONFIG_PATH
// into AppConfig. Exits the process on error.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	AppConfig = cfg
}

// GetConfig returns AppConfig, loading it on first use.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

// Validate rejects values no default can repair.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.StartHour < 0 || p.StartHour > 23 {
		return fmt.Errorf("pipeline.start_hour must be in [0,23], got %d", p.StartHour)
	}
	if p.EndHour < 0 || p.EndHour > 24 {
		return fmt.Errorf("pipeline.end_hour must be in [0,24], got %d", p.EndHour)
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	cfg.Server.Port = atoiOr(os.Getenv("SERVER_PORT"), cfg.Server.Port)
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	cfg.JWT.TTL = atoiOr(os.Getenv("JWT_TTL"), cfg.JWT.TTL)

	p := &cfg.Pipeline
	p.StartHour = atoiOr(os.Getenv("CHAT_ALLOWED_START_HOUR"), p.StartHour)
	p.EndHour = atoiOr(os.Getenv("CHAT_ALLOWED_END_HOUR"), p.EndHour)
	p.RateLimit = atoiOr(os.Getenv("RATE_LIMIT"), p.RateLimit)
	p.RateWindowSeconds = atoiOr(os.Getenv("RATE_WINDOW_SECONDS"), p.RateWindowSeconds)
	if v := os.Getenv("CHAT_URL_PREFIXES"); v != "" {
		p.GovernedPrefixes = splitList(v)
	}
	if v := os.Getenv("REQUEST_LOG_PATH"); v != "" {
		p.RequestLogPath = v
	}

	if v := os.Getenv("FIRST_ADMIN_USERNAME"); v != "" {
		cfg.FirstAdminUsername = v
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		cfg.FirstAdminEmail = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		cfg.FirstAdminPassword = v
	}
}

// applyDefaults repairs empty or non-positive values with the documented defaults.
func applyDefaults(cfg *Config) {
	p := &cfg.Pipeline
	if p.RateLimit <= 0 {
		p.RateLimit = DefaultRateLimit
	}
	if p.RateWindowSeconds <= 0 {
		p.RateWindowSeconds = DefaultRateWindowSeconds
	}
	if len(p.GovernedPrefixes) == 0 {
		p.GovernedPrefixes = append([]string(nil), DefaultGovernedPrefixes...)
	}
	if len(p.ProtectedPrefixes) == 0 {
		p.ProtectedPrefixes = append([]string(nil), DefaultProtectedPrefixes...)
	}
	if len(p.AllowedRoles) == 0 {
		p.AllowedRoles = append([]string(nil), DefaultAllowedRoles...)
	}
	if p.RequestLogPath == "" {
		p.RequestLogPath = DefaultRequestLogPath
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.FirstAdminUsername == "" {
		cfg.FirstAdminUsername = "admin"
	}
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
