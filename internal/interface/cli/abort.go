package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
)

func newAbortCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "abort <unit-id>",
		Short: "Abort a unit of work, keeping its snapshot for inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := InitializeContainer(ctx, globalConfig)
			if err != nil {
				return err
			}
			defer c.Close()

			orch := orchestrator.NewOrchestrator(c.Memory, c.Logger, globalConfig.ContextBudget())
			status, err := orch.Abort(ctx, args[0], reason)
			if err != nil {
				return err
			}
			fmt.Println(status.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "aborted by operator", "Reason recorded on the unit")
	return cmd
}
