package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/planbiir/gpxkit/internal/pace"
	"github.com/planbiir/gpxkit/internal/trackmap"
)

// EnvPrefix prefixes every environment variable, e.g. GPXKIT_PACE_RATE.
const EnvPrefix = "GPXKIT"

// Config holds all settings of the gpxkit commands.
type Config struct {
	Pace   PaceConfig   `mapstructure:"pace"`
	Output OutputConfig `mapstructure:"output"`
	Map    MapConfig    `mapstructure:"map"`
	Log    LogConfig    `mapstructure:"log"`
}

type PaceConfig struct {
	Rate   float64 `mapstructure:"rate"`   // seconds per km
	Jitter float64 `mapstructure:"jitter"` // seconds
	Seed   uint64  `mapstructure:"seed"`   // 0 draws a fresh seed every run
}

type OutputConfig struct {
	Suffix string `mapstructure:"suffix"`
}

type MapConfig struct {
	Elevation bool      `mapstructure:"elevation"`
	AutoBound bool      `mapstructure:"auto-bound"`
	Bounds    []float64 `mapstructure:"bounds"` // min lon, min lat, max lon, max lat
	Output    string    `mapstructure:"output"`
	DPI       int       `mapstructure:"dpi"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pace.rate", 265.0)
	v.SetDefault("pace.jitter", 10.0)
	v.SetDefault("pace.seed", 0)
	v.SetDefault("output.suffix", "-analog")
	v.SetDefault("map.elevation", true)
	v.SetDefault("map.auto-bound", true)
	v.SetDefault("map.bounds", []float64{})
	v.SetDefault("map.output", "heatmap.png")
	v.SetDefault("map.dpi", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration into v and decodes it. Values come, from lowest
// to highest priority, from the defaults, the config file, the environment and
// any flags already bound to v. An empty file searches for .gpxkit.yml in the
// home directory and the working directory; not finding one is fine.
func Load(v *viper.Viper, fs afero.Fs, file string) (*Config, error) {
	SetDefaults(v)
	v.SetFs(fs)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".gpxkit")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// GPXKIT_MAP_AUTO_BOUND -> map.auto-bound
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if math.IsNaN(c.Pace.Rate) || math.IsInf(c.Pace.Rate, 0) {
		errs = append(errs, "pace.rate must be a finite number")
	}
	if math.IsNaN(c.Pace.Jitter) || c.Pace.Jitter < 0 || c.Pace.Jitter > pace.MaxJitter {
		errs = append(errs, fmt.Sprintf("pace.jitter must be between 0 and %d, got %v", pace.MaxJitter, c.Pace.Jitter))
	}
	if c.Output.Suffix == "" {
		errs = append(errs, "output.suffix is required")
	}
	if c.Map.Output == "" {
		errs = append(errs, "map.output is required")
	}
	if c.Map.DPI <= 0 {
		errs = append(errs, fmt.Sprintf("map.dpi must be positive, got %d", c.Map.DPI))
	}
	if !c.Map.AutoBound {
		if len(c.Map.Bounds) != 4 {
			errs = append(errs, fmt.Sprintf("map.bounds needs 4 values when map.auto-bound is off, got %d", len(c.Map.Bounds)))
		} else if err := c.boundsOf().Validate(); err != nil {
			errs = append(errs, "map.bounds: "+err.Error())
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PaceModel returns the pace section as a model for pace.Correct.
func (c *Config) PaceModel() pace.PaceModel {
	return pace.PaceModel{BaseRate: c.Pace.Rate, Jitter: c.Pace.Jitter}
}

// MapOptions returns the map section as render options.
func (c *Config) MapOptions() trackmap.Options {
	opts := trackmap.DefaultOptions()
	opts.Elevation = c.Map.Elevation
	opts.DPI = c.Map.DPI
	if !c.Map.AutoBound {
		b := c.boundsOf()
		opts.Bounds = &b
	}
	return opts
}

func (c *Config) boundsOf() trackmap.Bounds {
	return trackmap.Bounds{
		MinLon: c.Map.Bounds[0],
		MinLat: c.Map.Bounds[1],
		MaxLon: c.Map.Bounds[2],
		MaxLat: c.Map.Bounds[3],
	}
}
