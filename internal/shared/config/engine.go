package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EngineConfig contains all configuration for the scatter engine and the
// command line driver.
type EngineConfig struct {
	Engine   EngineSettings `mapstructure:"engine"`
	Isolated IsolatedConfig `mapstructure:"isolated"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// EngineSettings holds the defaults applied to tasks that leave them unset.
type EngineSettings struct {
	Workers int    `mapstructure:"workers"`
	Mode    string `mapstructure:"mode"`
	Policy  string `mapstructure:"policy"`
}

// IsolatedConfig configures the child processes of isolated mode.
type IsolatedConfig struct {
	Executable string `mapstructure:"executable"`
	EnvMarker  string `mapstructure:"env_marker"`
}

// LoadEngine loads the engine configuration from the given path.
// If configPath is empty, it looks for scatter.yaml in the config/ directory.
// Environment variables with SCATTER_ prefix override config file values.
func LoadEngine(configPath string) (*EngineConfig, error) {
	v := viper.New()

	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.mode", "shared")
	v.SetDefault("engine.policy", "expect_all")
	v.SetDefault("isolated.executable", "")
	v.SetDefault("isolated.env_marker", "SCATTER_WORKER")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.backend", "slog")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("scatter")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCATTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
