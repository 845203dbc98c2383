package cli

import (
	"fmt"
	"os"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/spf13/cobra"
)

// NewCaveatsCmd creates the caveats command.
func NewCaveatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caveats [FORMULA]",
		Short: "Print the post-install instructions of a formula",
		Long:  "Print the caveats block of a formula or template; defaults to the configured template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runCaveats(cmd, path)
		},
	}

	return cmd
}

func runCaveats(cmd *cobra.Command, path string) error {
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Template
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	caveats := formula.ParseCaveats(data)
	if caveats == "" {
		return fmt.Errorf("%s has no caveats block: %w", path, errors.ErrFieldNotFound)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), caveats)
	return nil
}
