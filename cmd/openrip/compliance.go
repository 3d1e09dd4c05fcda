package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openrip/openrip/internal/compliance"
)

var complianceCmd = &cobra.Command{
	Use:   "compliance <bundle>...",
	Short: "Scan bundles for licensing and restricted-content markers",
	Long: `Compliance parses each bundle and runs the rule profile over the
resolved object set without extracting anything. Blocking findings make
the command fail so it can gate scripted pipelines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline()
		if err != nil {
			return err
		}

		blocked := false
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			b, err := p.Open(ctx, data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			rep := p.ScanCompliance(b)
			fmt.Printf("%s (profile %s):\n", path, rep.Profile)
			printFindings(rep)
			if rep.Blocked() {
				blocked = true
			}
		}

		if blocked {
			return fmt.Errorf("blocking compliance findings present")
		}
		return nil
	},
}

func printFindings(rep compliance.Report) {
	if len(rep.Findings) == 0 {
		fmt.Println("  no findings")
	}
	for _, f := range rep.Findings {
		object := f.Object
		if object == "" {
			object = "(bundle)"
		}
		fmt.Printf("  [%s] %s: %s %s\n", f.Severity, f.Rule, object, f.Detail)
	}
	fmt.Printf("  %d blocking, %d advisory, risk score %d/100\n",
		rep.Count(compliance.SeverityBlocking),
		rep.Count(compliance.SeverityAdvisory),
		rep.RiskScore())
}

func init() {
	rootCmd.AddCommand(complianceCmd)
}
