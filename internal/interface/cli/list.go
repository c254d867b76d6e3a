package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known units of work",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := InitializeContainer(ctx, globalConfig)
			if err != nil {
				return err
			}
			defer c.Close()

			return printUnitTable(ctx, c)
		},
	}
}

// printUnitTable lists every recorded unit with its phase
func printUnitTable(ctx context.Context, c *Container) error {
	snaps, err := c.Memory.List(ctx)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("no units of work recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tPHASE\tSAVED")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			s.UnitID(), s.State.CurrentPhase, s.SavedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
