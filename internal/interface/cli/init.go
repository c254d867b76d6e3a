package cli

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Hell1213/Oss-Dev/internal/app"
	infraConfig "github.com/Hell1213/Oss-Dev/internal/infra/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .ossdev directory and a default setting.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			home := app.DefaultHome
			if env := os.Getenv("OSSDEV_HOME"); env != "" {
				home = env
			}
			paths := app.NewPaths(home)

			for _, dir := range []string{paths.Home, paths.BranchesDir(), paths.LocksDir()} {
				if err := fs.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}

			settingFile := paths.SettingFile()
			if exists, _ := afero.Exists(fs, settingFile); exists && !force {
				fmt.Printf("%s already exists (use --force to overwrite)\n", settingFile)
				return nil
			}
			if err := afero.WriteFile(fs, settingFile, infraConfig.CreateDefaultSettings(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", settingFile, err)
			}
			fmt.Printf("initialized %s\n", paths.Home)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing setting.yml")
	return cmd
}
