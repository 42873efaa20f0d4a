// Package config loads the rftp configuration from a YAML file and RFTP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/telebroad/rftp/ftp"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Users   UsersConfig   `mapstructure:"users" yaml:"users"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout bounds how long start waits for sessions on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0" yaml:"shutdown_timeout"`
}

// ServerConfig configures the control channel listener.
type ServerConfig struct {
	// Addr is the "host:port" to bind.
	Addr string `mapstructure:"addr" validate:"required" yaml:"addr"`

	// Root is the sandbox directory, created on start.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// MaxConnections is the connection budget, 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0" yaml:"max_connections"`

	AllowAnonymous bool `mapstructure:"allow_anonymous" yaml:"allow_anonymous"`

	// Modes lists the accepted transfer modes (S, B, C).
	Modes []string `mapstructure:"modes" validate:"required,min=1,dive,oneof=S B C" yaml:"modes"`

	// IdleTimeout closes sessions that send nothing for this long.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gt=0" yaml:"idle_timeout"`

	// Admission is the policy for connections over MaxConnections: reject or log.
	Admission string `mapstructure:"admission" validate:"required,oneof=reject log" yaml:"admission"`

	// Welcome is sent with the 220 greeting.
	Welcome string `mapstructure:"welcome" yaml:"welcome"`
}

// UsersConfig points at the users file.
type UsersConfig struct {
	// File is a YAML users file. Empty means no credentialed users.
	File string `mapstructure:"file" yaml:"file"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format specifies the log output format: text (tint console) or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// AddSource adds the source file and line to every record.
	AddSource bool `mapstructure:"add_source" yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr is the "host:port" of the metrics HTTP server.
	Addr string `mapstructure:"addr" validate:"required_if=Enabled true" yaml:"addr"`
}

// ServerInfo converts the server section into the value shared by sessions.
func (c *ServerConfig) ServerInfo() *ftp.ServerInfo {
	modes := make([]ftp.TransferMode, 0, len(c.Modes))
	for _, m := range c.Modes {
		if mode, ok := ftp.ParseTransferMode(m); ok {
			modes = append(modes, mode)
		}
	}
	return &ftp.ServerInfo{
		Modes:          modes,
		MaxConnections: c.MaxConnections,
		AllowAnonymous: c.AllowAnonymous,
		Admission:      ftp.AdmissionPolicy(c.Admission),
		IdleTimeout:    c.IdleTimeout,
		Welcome:        c.Welcome,
	}
}

// Load reads the configuration.
//
// Sources, lowest precedence first: built-in defaults, the config file,
// RFTP_* environment variables (RFTP_SERVER_ADDR, RFTP_LOGGING_LEVEL, ...).
// An empty configPath looks for rftp.yaml in the working directory and
// /etc/rftp; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the RFTP_ prefix and underscores
	// Example: RFTP_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("RFTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper knows about
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/rftp")
	v.SetConfigName("rftp")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts "30s" style strings and raw integers to
// time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume seconds for raw integers
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against the struct tag rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return nil
}
