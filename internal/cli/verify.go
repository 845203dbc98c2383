package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an existing installation",
		Long:  "Check that the installed package file exists and mentions the package name, then run the test hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, prefix)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Homebrew prefix (defaults to $HOMEBREW_PREFIX or config)")

	return cmd
}

func runVerify(cmd *cobra.Command, prefix string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, err := newInstallOrchestrator(cfg, resolvePrefix(cfg, prefix))
	if err != nil {
		return err
	}

	path, err := orch.Verify(cmd.Context(), cfg.Package.Name, cfg.Package.File)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return nil
}
