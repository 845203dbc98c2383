package cli

import (
	"github.com/rezkam/allyas/internal/logger"
	"github.com/spf13/cobra"
)

// NewUninstallCmd creates the uninstall command.
func NewUninstallCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the installed package file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUninstall(cmd, prefix)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Homebrew prefix (defaults to $HOMEBREW_PREFIX or config)")

	return cmd
}

func runUninstall(cmd *cobra.Command, prefix string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, err := newInstallOrchestrator(cfg, resolvePrefix(cfg, prefix))
	if err != nil {
		return err
	}

	removed, err := orch.Uninstall(cmd.Context(), cfg.Package.Name, cfg.Package.File)
	if err != nil {
		return err
	}
	logger.Success("Package uninstalled", logger.Fields{"package": cfg.Package.Name, "path": removed})
	return nil
}
