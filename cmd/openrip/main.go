package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/openrip/openrip/internal/compliance"
	"github.com/openrip/openrip/internal/config"
	"github.com/openrip/openrip/internal/pipeline"
)

var (
	cfg     *config.Config
	cfgFile string

	outputDir    string
	catalogPath  string
	profilePath  string
	rasterFormat string
	workers      int
	logLevel     string
	logFormat    string
	noProgress   bool
)

var rootCmd = &cobra.Command{
	Use:   "openrip",
	Short: "Game bundle asset extraction and conversion tool",
	Long: `openrip parses proprietary game-engine bundle containers and converts
the assets inside into standard interchange formats: PNG/BMP for
textures, glTF for meshes, OGG/WAV for audio and JSON for materials.

Every extraction runs a compliance scan over the bundle first; bundles
carrying restricted-license markers are refused unless explicitly
overridden.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("output") {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("catalog") {
			cfg.Catalog = catalogPath
		}
		if cmd.Flags().Changed("profile") {
			cfg.Profile = profilePath
		}
		if cmd.Flags().Changed("raster-format") {
			cfg.RasterFormat = rasterFormat
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		return nil
	},
}

// loadProfile resolves the compliance profile from configuration,
// falling back to the built-in rules.
func loadProfile() (compliance.Profile, error) {
	if cfg.Profile == "" {
		return compliance.DefaultProfile(), nil
	}
	return compliance.LoadProfile(cfg.Profile)
}

// newPipeline builds the pipeline the commands share.
func newPipeline() (*pipeline.Pipeline, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Options{
		Profile:             profile,
		Workers:             cfg.Workers,
		Logger:              slog.Default(),
		MaxDecompressedSize: int64(cfg.MaxDecompMB) << 20,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is openrip.yaml in pwd)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory for produced artifacts")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "SQLite catalog recording extraction runs")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "compliance profile YAML file")
	rootCmd.PersistentFlags().StringVar(&rasterFormat, "raster-format", "", "texture output format (png, bmp)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "worker pool size (default: number of CPUs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
