// Package config loads CLI settings from a config file and QRLABEL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ByLCY/qrlabel/layout"
)

// EnvPrefix is prepended to every environment variable, e.g. QRLABEL_WORKERS.
const EnvPrefix = "QRLABEL"

// Config holds the settings shared by all commands.
type Config struct {
	Canvas       CanvasConfig `mapstructure:"canvas"`
	Strategy     string       `mapstructure:"strategy"`
	Shadow       bool         `mapstructure:"shadow"`
	Workers      int          `mapstructure:"workers"`
	Fonts        []string     `mapstructure:"fonts"`
	NameTemplate string       `mapstructure:"name_template"`
	Palette      string       `mapstructure:"palette"` // TOML file with color overrides
	Verify       bool         `mapstructure:"verify"`
}

// CanvasConfig is the label size used when a sheet does not declare one.
type CanvasConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	Unit   string  `mapstructure:"unit"`
	DPI    int     `mapstructure:"dpi"`
}

// DefaultConfig returns the built-in defaults: the 6614x6850 px label at 600 dpi.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:  layout.DefaultWidthPX,
			Height: layout.DefaultHeightPX,
			Unit:   "px",
			DPI:    layout.DefaultDPI,
		},
		Strategy: "proportional",
		Shadow:   true,
	}
}

// Load reads cfgFile (or config.{yaml,toml} from the working directory and
// $HOME/.qrlabel) on top of the defaults, then applies QRLABEL_ variables.
// A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("canvas.width", defaults.Canvas.Width)
	v.SetDefault("canvas.height", defaults.Canvas.Height)
	v.SetDefault("canvas.unit", defaults.Canvas.Unit)
	v.SetDefault("canvas.dpi", defaults.Canvas.DPI)
	v.SetDefault("strategy", defaults.Strategy)
	v.SetDefault("shadow", defaults.Shadow)
	v.SetDefault("workers", 0)
	v.SetDefault("fonts", []string{})
	v.SetDefault("name_template", "")
	v.SetDefault("palette", "")
	v.SetDefault("verify", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.qrlabel")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Dimension converts the canvas settings into a layout.DimensionSpec.
func (c *Config) Dimension() (layout.DimensionSpec, error) {
	unit, err := layout.ParseUnit(c.Canvas.Unit)
	if err != nil {
		return layout.DimensionSpec{}, err
	}
	return layout.DimensionSpec{
		Width:  c.Canvas.Width,
		Height: c.Canvas.Height,
		Unit:   unit,
		DPI:    c.Canvas.DPI,
	}, nil
}
