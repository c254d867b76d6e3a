package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

type statusOutput struct {
	Ts              string `json:"ts"`
	UnitID          string `json:"unit_id"`
	Phase           string `json:"phase"`
	CompletedPhases int    `json:"completed_phases"`
	TotalPhases     int    `json:"total_phases"`
	AbortReason     string `json:"abort_reason,omitempty"`
	SnapshotID      string `json:"snapshot_id"`
	SavedAt         string `json:"saved_at"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [unit-id]",
		Short: "Show the persisted state of one unit of work",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := InitializeContainer(ctx, globalConfig)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 0 {
				return printUnitTable(ctx, c)
			}

			snap, err := c.Memory.Load(ctx, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				out := statusOutput{
					Ts:              time.Now().UTC().Format(time.RFC3339Nano),
					UnitID:          snap.UnitID(),
					Phase:           string(snap.State.CurrentPhase),
					CompletedPhases: snap.State.CompletedPhases(),
					TotalPhases:     len(workflow.Phases()) - 1,
					AbortReason:     snap.State.AbortReason,
					SnapshotID:      snap.SnapshotID,
					SavedAt:         snap.SavedAt.UTC().Format(time.RFC3339),
				}
				b, err := json.Marshal(out)
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				fmt.Println(string(b))
				return nil
			}

			fmt.Printf("Unit     : %s\n", snap.UnitID())
			fmt.Printf("Phase    : %s (%d/%d complete)\n",
				snap.State.CurrentPhase, snap.State.CompletedPhases(), len(workflow.Phases())-1)
			if snap.State.AbortReason != "" {
				fmt.Printf("Aborted  : %s\n", snap.State.AbortReason)
			}
			fmt.Printf("Snapshot : %s\n", snap.SnapshotID)
			fmt.Printf("Saved    : %s\n", snap.SavedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status in JSON format")
	return cmd
}
