package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Tables  TablesConfig  `mapstructure:"tables"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Storage StorageConfig `mapstructure:"storage"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP facade.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug / release
}

// AWSConfig selects the backend region.
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// TablesConfig names the hosted backend tables.
type TablesConfig struct {
	Products   string `mapstructure:"products"`
	Orders     string `mapstructure:"orders"`
	OrderItems string `mapstructure:"order_items"`
}

// QueueConfig points at the change-feed queue.
type QueueConfig struct {
	URL         string `mapstructure:"url"`
	WaitSeconds int32  `mapstructure:"wait_seconds"`
}

// StorageConfig points at the product-image bucket.
type StorageConfig struct {
	Bucket           string `mapstructure:"bucket"`
	SignedURLSeconds int    `mapstructure:"signed_url_seconds"`
}

// JWTConfig holds the bearer-token secret.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// MetricsConfig controls CloudWatch metric publishing.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from an optional yaml file and ORDERFLOW_-prefixed
// environment variables, env taking precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("aws.region", "")
	v.SetDefault("tables.products", "products")
	v.SetDefault("tables.orders", "orders")
	v.SetDefault("tables.order_items", "order_items")
	v.SetDefault("queue.url", "")
	v.SetDefault("queue.wait_seconds", 20)
	v.SetDefault("storage.bucket", "product-images")
	v.SetDefault("storage.signed_url_seconds", 3600)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "Orderflow")

	v.SetEnvPrefix("ORDERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	return nil
}
