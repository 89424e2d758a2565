package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ohowland/lvnet/internal/pkg/engine"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LVNET_HTTP_PORT.
const EnvPrefix = "LVNET"

// Config is the service configuration.
type Config struct {
	Engine  engine.Config  `mapstructure:"engine"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Log     logging.Config `mapstructure:"log"`
	Streams StreamsConfig  `mapstructure:"streams"`
}

// HTTPConfig contains the listener settings.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StreamsConfig points at the JSON configuration file of each result sink. An empty
// path disables the sink.
type StreamsConfig struct {
	MongoDB string `mapstructure:"mongodb"`
	NATS    string `mapstructure:"nats"`
	SQL     string `mapstructure:"sql"`
}

// LoadConfig loads configuration from file and environment variables. An empty
// configPath uses defaults and environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()
	v.SetDefault("engine.cos_phi", defaults.CosPhi)
	v.SetDefault("engine.workers", 4)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("streams.mongodb", "")
	v.SetDefault("streams.nats", "")
	v.SetDefault("streams.sql", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	return c.Engine.Validate()
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}
