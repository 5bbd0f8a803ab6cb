package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole application configuration, loaded per environment.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Bot             BotConfig             `yaml:"bot"`
	ActiveDirectory ActiveDirectoryConfig `yaml:"active_directory"`
	LUIS            LUISConfig            `yaml:"luis"`
	Directory       DirectoryConfig       `yaml:"directory"`
	Session         SessionConfig         `yaml:"session"`
	Log             LogConfig             `yaml:"log"`
	Features        FeaturesConfig        `yaml:"features"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// BotConfig holds the credentials used when posting activities back to the channel.
type BotConfig struct {
	AppID       string `yaml:"app_id"`
	AppPassword string `yaml:"app_password"`
}

type ActiveDirectoryConfig struct {
	Tenant       string `yaml:"tenant"`      // e.g. contoso.onmicrosoft.com
	ResourceID   string `yaml:"resource_id"` // resource the access token is requested for
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Authority    string `yaml:"authority"`    // e.g. https://login.microsoftonline.com
	RedirectURL  string `yaml:"redirect_url"` // public URL of /api/auth/callback
}

type LUISConfig struct {
	// ServiceURI is the full query URL up to and including "q=";
	// the percent-encoded text is appended to it.
	ServiceURI string        `yaml:"service_uri"`
	Timeout    time.Duration `yaml:"timeout"`
}

type DirectoryConfig struct {
	AdminHostSuffix string        `yaml:"admin_host_suffix"` // appended to the tenant id
	CompatLevel     int           `yaml:"compat_level"`
	Timeout         time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Backend    string        `yaml:"backend"` // memory, sqlite, redis
	SQLitePath string        `yaml:"sqlite_path"`
	RedisURL   string        `yaml:"redis_url"`
	TTL        time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type FeaturesConfig struct {
	Diagnostics bool `yaml:"diagnostics"`
}

// Load reads config/<APP_ENV>.yaml; APP_ENV defaults to local.
func Load() (*Config, error) {
	return LoadFile(fmt.Sprintf("config/%s.yaml", Env()))
}

// LoadFile reads and parses the given YAML file, applies defaults and
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	// secrets may come from the environment instead of the file
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Env returns the current environment name.
func Env() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return "local"
	}
	return env
}

// Validate reports configuration errors that make the bot unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.ActiveDirectory.Tenant == "" {
		errs = append(errs, errors.New("active_directory.tenant is required"))
	}
	if c.ActiveDirectory.ResourceID == "" {
		errs = append(errs, errors.New("active_directory.resource_id is required"))
	}
	if c.LUIS.ServiceURI == "" {
		errs = append(errs, errors.New("luis.service_uri is required"))
	}
	switch c.Session.Backend {
	case "memory":
	case "sqlite":
		if c.Session.SQLitePath == "" {
			errs = append(errs, errors.New("session.sqlite_path is required for the sqlite backend"))
		}
	case "redis":
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	return errors.Join(errs...)
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 3978
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.ActiveDirectory.Authority == "" {
		c.ActiveDirectory.Authority = "https://login.microsoftonline.com"
	}
	if c.LUIS.Timeout == 0 {
		c.LUIS.Timeout = 10 * time.Second
	}
	if c.Directory.AdminHostSuffix == "" {
		c.Directory.AdminHostSuffix = "-admin.sharepoint.com"
	}
	if c.Directory.CompatLevel == 0 {
		c.Directory.CompatLevel = 15
	}
	if c.Directory.Timeout == 0 {
		c.Directory.Timeout = 30 * time.Second
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func overrideFromEnv(c *Config) {
	if v := os.Getenv("AAD_CLIENT_SECRET"); v != "" {
		c.ActiveDirectory.ClientSecret = v
	}
	if v := os.Getenv("BOT_APP_PASSWORD"); v != "" {
		c.Bot.AppPassword = v
	}
	if v := os.Getenv("LUIS_SERVICE_URI"); v != "" {
		c.LUIS.ServiceURI = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Session.RedisURL = v
	}
}
