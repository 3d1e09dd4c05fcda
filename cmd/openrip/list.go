package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openrip/openrip/internal/utils"
)

var listCmd = &cobra.Command{
	Use:   "list <bundle>...",
	Short: "List the objects inside one or more bundles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline()
		if err != nil {
			return err
		}

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			b, err := p.Open(ctx, data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			fmt.Printf("%s: %s family, engine %s, %d blocks, %s bytes decompressed\n",
				path, b.Header.Family(), b.Header.EngineVersion,
				len(b.Blocks), utils.Number(int64(len(b.Data()))))

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tOFFSET\tSIZE\tSTATUS")
			for _, obj := range p.ListObjects(b) {
				status := "ok"
				if obj.Error != "" {
					status = obj.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", obj.Name, obj.Kind, obj.Offset, obj.Size, status)
			}
			w.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
