// Package core holds the configuration and logging plumbing shared by the
// server and client components.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// udslink components.
type Config struct {
	// Filesystem path of the Unix domain socket both ends agree on.
	SocketPath string `mapstructure:"socket_path"`
	// Maximum number of simultaneous client connections the server will track.
	// Connections beyond this are closed immediately.
	MaxConnections int `mapstructure:"max_connections"`

	Client struct {
		// Number of one-second connect retries while the server is not yet
		// listening.
		ConnectRetries int `mapstructure:"connect_retries"`
	} `mapstructure:"client"`

	Message struct {
		// How long a posted message is served before falling back to the
		// default. Zero keeps messages forever.
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"message"`

	Logging struct {
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Include the caller's file and line number in log output.
		IncludeCaller bool `mapstructure:"include_caller"`
	} `mapstructure:"logging"`

	Debugging struct {
		// Log a hex dump of every validated packet.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "UDSLINK"

// DefaultConfig returns a Config usable without a config file.
func DefaultConfig() *Config {
	cfg := &Config{
		SocketPath:     "/tmp/udslink.sock",
		MaxConnections: 10,
	}
	cfg.Client.ConnectRetries = 10
	cfg.Logging.LogLevel = "info"
	return cfg
}

// LoadConfig initializes Viper with the contents of the config file under
// configPath and applies any environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file in %s: %w", configPath, err)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, logging.log_level can be set using
	// UDSLINK_LOGGING_LOG_LEVEL.
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			return nil, fmt.Errorf("binding %s to %s: %w", k, envVarPrefix+"_"+envVar, err)
		}
	}

	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return config, nil
}
