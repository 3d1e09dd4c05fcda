package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	OutputDir    string `mapstructure:"output_dir"`
	Catalog      string `mapstructure:"catalog"`
	Profile      string `mapstructure:"profile"`
	RasterFormat string `mapstructure:"raster_format"`
	OBJFallback  bool   `mapstructure:"obj_fallback"`
	FlipTextures bool   `mapstructure:"flip_textures"`
	Workers      int    `mapstructure:"workers"`
	MaxDecompMB  int    `mapstructure:"max_decompressed_mb"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	// Set defaults
	viper.SetDefault("output_dir", "out")
	viper.SetDefault("catalog", "")
	viper.SetDefault("raster_format", "png")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	// Config file handling
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("openrip")
		viper.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateRasterFormat(cfg.RasterFormat); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateBounds(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validateRasterFormat(format string) error {
	switch format {
	case "", "png", "bmp":
		return nil
	}
	return fmt.Errorf("raster_format %q is not supported (png, bmp)", format)
}

// validateBounds rejects negative values; zero means "use the default".
func validateBounds(cfg *Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.MaxDecompMB < 0 {
		return fmt.Errorf("max_decompressed_mb must not be negative, got %d", cfg.MaxDecompMB)
	}
	return nil
}
