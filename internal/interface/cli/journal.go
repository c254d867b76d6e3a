package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	var tail int
	var unitID string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent turn journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := InitializeContainer(ctx, globalConfig)
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Journal.ReadAll(ctx)
			if err != nil {
				return err
			}
			if unitID != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if e.UnitID == unitID {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}
			if tail > 0 && len(entries) > tail {
				entries = entries[len(entries)-tail:]
			}
			if len(entries) == 0 {
				fmt.Println("journal is empty")
				return nil
			}

			for _, e := range entries {
				b, err := json.Marshal(e)
				if err != nil {
					return fmt.Errorf("marshal journal entry: %w", err)
				}
				fmt.Println(string(b))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 20, "Show only the last N entries (0 for all)")
	cmd.Flags().StringVar(&unitID, "unit", "", "Show only entries for one unit of work")
	return cmd
}
