package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/catalog"
	"github.com/openrip/openrip/internal/compliance"
	"github.com/openrip/openrip/internal/export"
	"github.com/openrip/openrip/internal/pipeline"
	"github.com/openrip/openrip/internal/utils"
)

var (
	overrideCompliance bool
	objFallback        bool
	flipTextures       bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <bundle>...",
	Short: "Extract and convert the assets inside one or more bundles",
	Long: `Extract parses each bundle, runs the compliance scan, decodes every
object and writes the converted artifacts under the output directory.

A blocking compliance finding refuses the whole bundle; pass --override
to extract anyway. Findings are reported either way.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := newPipeline()
		if err != nil {
			return err
		}

		var cat *catalog.Catalog
		if cfg.Catalog != "" {
			if cat, err = catalog.Open(catalog.DefaultOptions(cfg.Catalog)); err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer cat.Close()
		}

		opts := export.Options{
			RasterFormat: cfg.RasterFormat,
			FlipVertical: cfg.FlipTextures,
			OBJFallback:  cfg.OBJFallback,
		}
		if cmd.Flags().Changed("obj") {
			opts.OBJFallback = objFallback
		}
		if cmd.Flags().Changed("flip") {
			opts.FlipVertical = flipTextures
		}

		for _, path := range args {
			if err := extractBundle(ctx, p, cat, path, opts); err != nil {
				return err
			}
		}
		return nil
	},
}

func extractBundle(ctx context.Context, p *pipeline.Pipeline, cat *catalog.Catalog, path string, opts export.Options) error {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	b, err := p.Open(ctx, data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	slog.Info("Extracting bundle",
		"bundle", path,
		"family", b.Header.Family(),
		"entries", len(b.Entries),
		"bytes", utils.Number(int64(len(b.Data()))))

	var runID string
	if cat != nil {
		if runID, err = cat.BeginRun(ctx, filepath.Base(path), &b.Header); err != nil {
			return err
		}
	}

	progress := utils.NewProgress(len(b.Entries), !noProgress)
	rep, err := p.Extract(ctx, b, pipeline.ExtractOptions{
		Export:   opts,
		Override: overrideCompliance,
		Progress: func(done, total int) {
			progress.Update(done, filepath.Base(path))
		},
	})
	progress.Finish()

	if cat != nil && rep != nil {
		if recErr := cat.RecordReport(ctx, runID, rep); recErr != nil {
			slog.Warn("Failed to record run in catalog", "error", recErr)
		}
	}

	if err != nil {
		if cat != nil {
			if finErr := cat.FinishRun(context.WithoutCancel(ctx), runID, runStatus(err)); finErr != nil {
				slog.Warn("Failed to finish catalog run", "error", finErr)
			}
		}
		if errors.Is(err, bundle.ErrComplianceBlocked) {
			printFindings(rep.Compliance)
		}
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	outDir := filepath.Join(cfg.OutputDir, bundleStem(path))
	written, failed := 0, 0
	seen := map[string]int{}
	for _, res := range rep.Results {
		if res.Err != nil {
			// Raw passthroughs carry both an error and an artifact;
			// the artifact is still written.
			slog.Warn("Object failed", "object", res.Name, "error", res.Err)
			failed++
		}
		for _, art := range res.Artifacts {
			if err := writeArtifact(outDir, uniqueName(seen, art.Name), art.Data); err != nil {
				return err
			}
			written++
		}
	}

	if cat != nil {
		if err := cat.FinishRun(ctx, runID, "completed"); err != nil {
			slog.Warn("Failed to finish catalog run", "error", err)
		}
	}

	slog.Info("Bundle extracted",
		"bundle", path,
		"artifacts", written,
		"failed_objects", failed,
		"advisories", rep.Compliance.Count(compliance.SeverityAdvisory),
		"duration", utils.Duration(time.Since(start)))
	return nil
}

func writeArtifact(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// uniqueName disambiguates repeated artifact names, which duplicate
// directory entries produce, by inserting an ordinal before the
// extension: twin.png, twin-2.png.
func uniqueName(seen map[string]int, name string) string {
	base := filepath.Base(name)
	seen[base]++
	if n := seen[base]; n > 1 {
		ext := filepath.Ext(base)
		return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
	}
	return base
}

// runStatus labels a failed extraction run for the catalog.
func runStatus(err error) string {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, bundle.ErrComplianceBlocked):
		return "blocked"
	}
	return "failed"
}

// bundleStem strips the extension from a bundle filename for use as an
// output subdirectory.
func bundleStem(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}

func init() {
	extractCmd.Flags().BoolVar(&overrideCompliance, "override", false, "extract despite blocking compliance findings")
	extractCmd.Flags().BoolVar(&objFallback, "obj", false, "also emit Wavefront OBJ for meshes")
	extractCmd.Flags().BoolVar(&flipTextures, "flip", false, "flip textures vertically")
	rootCmd.AddCommand(extractCmd)
}
