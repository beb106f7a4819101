package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport names accepted by the transport setting
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

const (
	// DefaultEndpoint is the containerd CRI socket
	DefaultEndpoint = "unix:///run/containerd/containerd.sock"
	// DefaultAddress is the listen address for the network transports
	DefaultAddress = "0.0.0.0:3000"
	// EnvPrefix prefixes every environment override, e.g. CRI_MCP_TIMEOUTS_CALL
	EnvPrefix = "CRI_MCP"
)

// Config stores all configuration of the bridge.
// Values are read by viper from flags, environment, a config file and defaults.
type Config struct {
	Transport     string           `mapstructure:"transport"`
	Address       string           `mapstructure:"address"`
	Endpoint      string           `mapstructure:"endpoint"`
	ReadOnly      bool             `mapstructure:"read_only"`
	DaemonLogPath string           `mapstructure:"daemon_log_path"`
	Timeouts      TimeoutConfig    `mapstructure:"timeouts"`
	Tools         ToolsConfig      `mapstructure:"tools"`
	Containerd    ContainerdConfig `mapstructure:"containerd"`
	Log           LogConfig        `mapstructure:"log"`
	Metrics       MetricsConfig    `mapstructure:"metrics"`
	Audit         AuditConfig      `mapstructure:"audit"`
}

// TimeoutConfig bounds backend calls
type TimeoutConfig struct {
	Call              time.Duration `mapstructure:"call"`
	LongRunning       time.Duration `mapstructure:"long_running"`
	Dial              time.Duration `mapstructure:"dial"`
	ReconnectCooldown time.Duration `mapstructure:"reconnect_cooldown"`
}

// ToolsConfig narrows the advertised catalog
type ToolsConfig struct {
	Disabled []string `mapstructure:"disabled"`
}

// ContainerdConfig controls the containerd-native tools
type ContainerdConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig configures the health and metrics listener
type MetricsConfig struct {
	// Address of a dedicated listener. Empty serves /health and /metrics on
	// the transport listener for http and sse, and nowhere for stdio.
	Address string `mapstructure:"address"`
}

// AuditConfig configures the tool call journal
type AuditConfig struct {
	// Path of the bbolt file. Empty disables the journal.
	Path string `mapstructure:"path"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("address", DefaultAddress)
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("read_only", false)
	v.SetDefault("daemon_log_path", "/var/log/containerd/containerd.log")

	v.SetDefault("timeouts.call", 30*time.Second)
	v.SetDefault("timeouts.long_running", 10*time.Minute)
	v.SetDefault("timeouts.dial", 10*time.Second)
	v.SetDefault("timeouts.reconnect_cooldown", 2*time.Second)

	v.SetDefault("tools.disabled", []string{})

	v.SetDefault("containerd.enabled", true)
	v.SetDefault("containerd.namespace", "k8s.io")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metrics.address", "")
	v.SetDefault("audit.path", "")
}

// Load reads configuration into a Config. configPath may be empty, in which
// case cri-mcp.yaml is searched in the working directory and /etc/cri-mcp.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cri-mcp")
		v.SetConfigName("cri-mcp")
		v.SetConfigType("yaml")
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the bridge cannot start with
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		return fmt.Errorf("invalid transport %q: must be one of %s, %s, %s",
			c.Transport, TransportStdio, TransportHTTP, TransportSSE)
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Transport != TransportStdio && c.Address == "" {
		return fmt.Errorf("address is required for the %s transport", c.Transport)
	}

	timeouts := map[string]time.Duration{
		"timeouts.call":         c.Timeouts.Call,
		"timeouts.long_running": c.Timeouts.LongRunning,
		"timeouts.dial":         c.Timeouts.Dial,
	}
	for key, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.Timeouts.ReconnectCooldown < 0 {
		return fmt.Errorf("timeouts.reconnect_cooldown must not be negative, got %s", c.Timeouts.ReconnectCooldown)
	}
	if c.Containerd.Enabled && c.Containerd.Namespace == "" {
		return fmt.Errorf("containerd.namespace must not be empty")
	}
	return nil
}
