package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/telebroad/rftp/ftp"
)

const (
	DefaultAddr            = ftp.DefaultAddr
	DefaultRoot            = "/var/rftp"
	DefaultMaxConnections  = 10
	DefaultAdmission       = string(ftp.AdmissionReject)
	DefaultIdleTimeout     = ftp.DefaultIdleTimeout
	DefaultMetricsAddr     = ":9090"
	DefaultShutdownTimeout = 10 * time.Second
)

// setViperDefaults registers every key so environment overrides apply even
// without a config file.
func setViperDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.root", d.Server.Root)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.allow_anonymous", d.Server.AllowAnonymous)
	v.SetDefault("server.modes", d.Server.Modes)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout.String())
	v.SetDefault("server.admission", d.Server.Admission)
	v.SetDefault("server.welcome", d.Server.Welcome)
	v.SetDefault("users.file", d.Users.File)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.add_source", d.Logging.AddSource)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout.String())
}

// ApplyDefaults fills zero values and normalizes case.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = []string{string(ftp.ModeStream)}
	}
	for i, m := range cfg.Modes {
		cfg.Modes[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Admission == "" {
		cfg.Admission = DefaultAdmission
	}
	cfg.Admission = strings.ToLower(cfg.Admission)
	if cfg.Welcome == "" {
		cfg.Welcome = ftp.DefaultWelcome
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultMetricsAddr
	}
}

// GetDefaultConfig returns the configuration used when nothing is set.
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultAddr,
			Root:           DefaultRoot,
			MaxConnections: DefaultMaxConnections,
			Modes:          []string{string(ftp.ModeStream)},
			IdleTimeout:    DefaultIdleTimeout,
			Admission:      DefaultAdmission,
			Welcome:        ftp.DefaultWelcome,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}
