package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/iconidentify/tumblrembed/internal/normalize"
	"github.com/iconidentify/tumblrembed/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Tumblr TumblrConfig `yaml:"tumblr"`
	Store  StoreConfig  `yaml:"store"`
	Embed  EmbedConfig  `yaml:"embed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"SERVER_REQUEST_TIMEOUT"`
	// PublicBaseURL is the externally visible scheme and host, used for oEmbed
	// discovery links when the service sits behind a proxy.
	PublicBaseURL string `yaml:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
	OpsAPIKey     string `yaml:"ops_api_key" envconfig:"OPS_API_KEY"`
}

// TumblrConfig holds the platform API credentials and endpoints.
type TumblrConfig struct {
	ConsumerKey    string        `yaml:"consumer_key" envconfig:"TUMBLR_CONSUMER_KEY"`
	ConsumerSecret string        `yaml:"consumer_secret" envconfig:"TUMBLR_CONSUMER_SECRET"`
	BaseURL        string        `yaml:"base_url" envconfig:"TUMBLR_BASE_URL"`
	TokenURL       string        `yaml:"token_url" envconfig:"TUMBLR_TOKEN_URL"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TUMBLR_TIMEOUT"`
	UserAgent      string        `yaml:"user_agent" envconfig:"TUMBLR_USER_AGENT"`
}

// StoreConfig selects the refresh-token store.
type StoreConfig struct {
	Backend       string `yaml:"backend" envconfig:"STORE_BACKEND"`
	Path          string `yaml:"path" envconfig:"STORE_PATH"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"STORE_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"STORE_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"STORE_REDIS_DB"`
	KeyPrefix     string `yaml:"key_prefix" envconfig:"STORE_KEY_PREFIX"`
}

// EmbedConfig holds the rendering policy.
type EmbedConfig struct {
	ServiceName           string `yaml:"service_name" envconfig:"EMBED_SERVICE_NAME"`
	ProviderURL           string `yaml:"provider_url" envconfig:"EMBED_PROVIDER_URL"`
	HomeURL               string `yaml:"home_url" envconfig:"EMBED_HOME_URL"`
	TrailOrder            string `yaml:"trail_order" envconfig:"EMBED_TRAIL_ORDER"`
	DefaultLocale         string `yaml:"default_locale" envconfig:"EMBED_DEFAULT_LOCALE"`
	DefaultColor          string `yaml:"default_color" envconfig:"EMBED_DEFAULT_COLOR"`
	DangerColor           string `yaml:"danger_color" envconfig:"EMBED_DANGER_COLOR"`
	LegacyJSONContentType bool   `yaml:"legacy_json_content_type" envconfig:"EMBED_LEGACY_JSON_CONTENT_TYPE"`
}

// Default returns the configuration used when neither the file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8787,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   45 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Tumblr: TumblrConfig{
			BaseURL:   "https://api.tumblr.com",
			TokenURL:  "https://api.tumblr.com/v2/oauth2/token",
			Timeout:   15 * time.Second,
			UserAgent: "tumblrembed/1.0",
		},
		Store: StoreConfig{
			Backend:   store.BackendFile,
			Path:      "data/tokens.json",
			RedisAddr: "localhost:6379",
			KeyPrefix: "tumblrembed:",
		},
		Embed: EmbedConfig{
			ServiceName:   "txTumblr",
			ProviderURL:   "https://github.com/MarkSuckerberg/txtumblr",
			HomeURL:       "https://github.com/MarkSuckerberg/txtumblr",
			TrailOrder:    string(normalize.TrailOrderPostFirst),
			DefaultLocale: "en-US",
			DefaultColor:  "5555aa",
			DangerColor:   "aa5555",
		},
	}
}

// Load reads configuration from file and environment variables.
// Environment variables override file values, which override Default.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Tumblr.ConsumerKey == "" {
		return fmt.Errorf("TUMBLR_CONSUMER_KEY is required")
	}
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendRedis:
	case store.BackendFile, store.BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the %s store", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendRedis && c.Store.RedisAddr == "" {
		return fmt.Errorf("STORE_REDIS_ADDR is required for the redis store")
	}
	if _, err := c.Embed.ParsedTrailOrder(); err != nil {
		return fmt.Errorf("EMBED_TRAIL_ORDER: %w", err)
	}
	if _, err := c.Embed.ParsedDefaultLocale(); err != nil {
		return fmt.Errorf("EMBED_DEFAULT_LOCALE: %w", err)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreOptions converts the section for store.New.
func (c *StoreConfig) StoreOptions() store.Config {
	return store.Config{
		Backend:       c.Backend,
		Path:          c.Path,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		KeyPrefix:     c.KeyPrefix,
	}
}

// DiskPath is the store's on-disk location, or "" for network and memory
// backends.
func (c *StoreConfig) DiskPath() string {
	if c.Backend == store.BackendFile || c.Backend == store.BackendSQLite {
		return c.Path
	}
	return ""
}

// ParsedTrailOrder returns the configured trail order.
func (c *EmbedConfig) ParsedTrailOrder() (normalize.TrailOrder, error) {
	return normalize.ParseTrailOrder(c.TrailOrder)
}

// ParsedDefaultLocale returns the configured fallback locale.
func (c *EmbedConfig) ParsedDefaultLocale() (language.Tag, error) {
	if c.DefaultLocale == "" {
		return normalize.DefaultLocale, nil
	}
	return language.Parse(c.DefaultLocale)
}
