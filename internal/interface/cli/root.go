package cli

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/app/config"
	infraConfig "github.com/Hell1213/Oss-Dev/internal/infra/config"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig config.Config

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ossdev",
		Short: "Automated OSS contribution pipeline",
		Long: "ossdev drives a GitHub issue from repository understanding through " +
			"implementation, verification, and pull request, one phase at a time.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Priority: setting.yml > ENV > defaults
			baseDir := app.DefaultHome
			if home := os.Getenv("OSSDEV_HOME"); home != "" {
				baseDir = home
			}

			cfg, err := infraConfig.LoadSettings(afero.NewOsFs(), baseDir)
			if err != nil {
				return err
			}
			globalConfig = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newFixCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAbortCmd())
	cmd.AddCommand(newJournalCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
