// Package config provides configuration management for ClawCat.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Window    WindowConfig    `mapstructure:"window"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig configures the local ClawCat status service client.
type ServerConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ToggleSettle time.Duration `mapstructure:"toggle_settle"`
	RenderWSPath string        `mapstructure:"render_ws_path"`
}

// ResourcesConfig locates per-mode model and key-image bundles.
type ResourcesConfig struct {
	Root      string `mapstructure:"root"`       // key image bundles: {root}/{mode}/{group}/{key}.png
	ModelRoot string `mapstructure:"model_root"` // model descriptors: {model_root}/{mode}/cat.model3.json
	Watch     bool   `mapstructure:"watch"`
}

// WindowConfig holds overlay window placement preferences.
type WindowConfig struct {
	X       int  `mapstructure:"x"`
	Y       int  `mapstructure:"y"`
	Topmost bool `mapstructure:"topmost"`
}

// NotifyConfig configures desktop notifications.
type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:      "http://127.0.0.1:22622",
			PollInterval: 1 * time.Second,
			Timeout:      3 * time.Second,
			ToggleSettle: 300 * time.Millisecond,
			RenderWSPath: "/render",
		},
		Resources: ResourcesConfig{
			Root:      "resources",
			ModelRoot: "/models",
			Watch:     true,
		},
		Window: WindowConfig{
			X:       0,
			Y:       0,
			Topmost: true,
		},
		Notify: NotifyConfig{
			Desktop: true,
		},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := Dir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CLAWCAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// No config file yet, persist the defaults.
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file.
func Save(cfg *Config) error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("server", cfg.Server)
	viper.Set("resources", cfg.Resources)
	viper.Set("window", cfg.Window)
	viper.Set("notify", cfg.Notify)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".clawcat"), nil
}
