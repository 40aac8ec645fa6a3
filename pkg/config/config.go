package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Storage struct {
		Endpoint       string        `yaml:"endpoint"`
		Region         string        `yaml:"region"`
		Bucket         string        `yaml:"bucket"`
		AccessKey      string        `yaml:"access_key"`
		SecretKey      string        `yaml:"secret_key"`
		PathStyle      bool          `yaml:"path_style"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"storage"`
	PriceFeed struct {
		Key     string   `yaml:"key"`
		Columns []string `yaml:"columns"`
	} `yaml:"price_feed"`
	SignalFeed struct {
		Prefix string   `yaml:"prefix"`
		Models []string `yaml:"models"`
	} `yaml:"signal_feed"`
	Cache struct {
		TTL         time.Duration `yaml:"ttl"`
		OverviewTTL time.Duration `yaml:"overview_ttl"`
	} `yaml:"cache"`
	Watchlist []string `yaml:"watchlist"`
	Redis     struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Column names the price feed understands. The configured column list assigns
// these positionally since the CSV carries no header.
const (
	ColTimestamp = "timestamp"
	ColCoin      = "coin"
	ColPrice     = "price_usd"
	ColMarketCap = "market_cap_usd"
	ColVolume24h = "volume_24h_usd"
	ColChange24h = "change_24h_pct"
)

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Storage credentials are expected to arrive this way in deployments; the
// YAML keys exist for local development only.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.RequestTimeout == 0 {
		c.Storage.RequestTimeout = 5 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.OverviewTTL == 0 {
		c.Cache.OverviewTTL = 30 * time.Second
	}
	if len(c.PriceFeed.Columns) == 0 {
		c.PriceFeed.Columns = []string{ColTimestamp, ColCoin, ColPrice, ColMarketCap, ColVolume24h}
	}
	if len(c.SignalFeed.Models) == 0 {
		c.SignalFeed.Models = []string{"lr", "dt"}
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = []string{"BTC", "ETH", "SOL", "XRP", "ADA"}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage.endpoint is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.PriceFeed.Key == "" {
		return fmt.Errorf("price_feed.key is required")
	}
	if c.SignalFeed.Prefix == "" {
		return fmt.Errorf("signal_feed.prefix is required")
	}
	hasCol := func(name string) bool {
		for _, col := range c.PriceFeed.Columns {
			if col == name {
				return true
			}
		}
		return false
	}
	for _, required := range []string{ColTimestamp, ColCoin, ColPrice} {
		if !hasCol(required) {
			return fmt.Errorf("price_feed.columns must include '%s'", required)
		}
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist cannot be empty")
	}
	return nil
}
