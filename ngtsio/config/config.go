package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/cjduffy/ngtsio/ngtsio"

	"github.com/spf13/viper"
)

// Config stores all configuration of the library.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Corrections CorrectionsConfig `mapstructure:"corrections"`
}

// DatasetConfig stores where datasets live and how they are read.
type DatasetConfig struct {
	Root    string `mapstructure:"root"`
	Backend string `mapstructure:"backend"`
}

// ScaleCorrection is a zero-offset/precision pair applied to raw pixel values
// as (value + zeroOffset) / precision.
type ScaleCorrection struct {
	ZeroOffset float64 `mapstructure:"zeroOffset"`
	Precision  float64 `mapstructure:"precision"`
}

// CorrectionsConfig stores the unit-correction policy. RadianVersions lists the
// dataset versions whose catalogue RA/DEC columns are stored in radians and must
// be converted to degrees when reading decomposed products.
type CorrectionsConfig struct {
	CCD            ScaleCorrection `mapstructure:"ccd"`
	Centroid       ScaleCorrection `mapstructure:"centroid"`
	RadianVersions []string        `mapstructure:"radianVersions"`
}

// RadianVersion reports whether the given dataset version stores RA/DEC in radians.
func (c *CorrectionsConfig) RadianVersion(version string) bool {
	for _, v := range c.RadianVersions {
		if v == version {
			return true
		}
	}
	return false
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. dataset.backend becomes DATASET_BACKEND

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

func setDefaults() {
	viper.SetDefault("dataset.root", ".")
	viper.SetDefault("dataset.backend", internal.DefaultBackend)

	// Raw CCD pixel coordinates are stored scaled by 32, centroid shifts by 1024.
	viper.SetDefault("corrections.ccd.zeroOffset", 0.0)
	viper.SetDefault("corrections.ccd.precision", 32.0)
	viper.SetDefault("corrections.centroid.zeroOffset", 0.0)
	viper.SetDefault("corrections.centroid.precision", 1024.0)

	// Historic product versions that kept RA/DEC in radians.
	viper.SetDefault("corrections.radianVersions", []string{"TEST10", "TEST16", "TEST16A", "TEST18"})
}

// Default returns a Config populated with the package defaults, without touching
// the filesystem or the process environment. Callers embedding the library can
// start from this and override fields directly.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:    ".",
			Backend: internal.DefaultBackend,
		},
		Corrections: CorrectionsConfig{
			CCD:            ScaleCorrection{ZeroOffset: 0, Precision: 32},
			Centroid:       ScaleCorrection{ZeroOffset: 0, Precision: 1024},
			RadianVersions: []string{"TEST10", "TEST16", "TEST16A", "TEST18"},
		},
	}
}
