package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openrip/openrip/internal/catalog"
	"github.com/openrip/openrip/internal/utils"
)

var (
	queryRun      string
	queryFindings bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Browse the extraction catalog",
	Long: `Query lists recorded extraction runs from the catalog database, or the
artifacts and compliance findings of a single run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if cfg.Catalog == "" {
			return fmt.Errorf("no catalog configured (set catalog in openrip.yaml or pass --catalog)")
		}

		cat, err := catalog.Open(catalog.DefaultOptions(cfg.Catalog))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer cat.Close()

		if queryRun == "" {
			return printRuns(ctx, cat)
		}
		if queryFindings {
			return printRunFindings(ctx, cat, queryRun)
		}
		return printRunArtifacts(ctx, cat, queryRun)
	},
}

func printRuns(ctx context.Context, cat *catalog.Catalog) error {
	runs, err := cat.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tBUNDLE\tFAMILY\tRISK\tSTATUS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.Bundle, r.Family, r.RiskScore, r.Status, r.StartedAt)
	}
	return w.Flush()
}

func printRunArtifacts(ctx context.Context, cat *catalog.Catalog, runID string) error {
	arts, err := cat.RunArtifacts(ctx, runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT\tARTIFACT\tTYPE\tSIZE\tBLAKE3")
	for _, a := range arts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ObjectName, a.Name, a.MediaType, utils.Number(a.Size), a.Hash)
	}
	return w.Flush()
}

func printRunFindings(ctx context.Context, cat *catalog.Catalog, runID string) error {
	findings, err := cat.RunFindings(ctx, runID)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Println("No findings recorded.")
		return nil
	}
	for _, f := range findings {
		object := f.Object
		if object == "" {
			object = "(bundle)"
		}
		fmt.Printf("[%s] %s: %s %s\n", f.Severity, f.Rule, object, f.Detail)
	}
	return nil
}

func init() {
	queryCmd.Flags().StringVar(&queryRun, "run", "", "run ID to inspect")
	queryCmd.Flags().BoolVar(&queryFindings, "findings", false, "show compliance findings instead of artifacts")
	rootCmd.AddCommand(queryCmd)
}
