package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/archive"
	"github.com/rezkam/allyas/pkg/download"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/release"
	"github.com/spf13/cobra"
)

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	var (
		ver string
		out string
	)

	cmd := &cobra.Command{
		Use:   "pack DIR",
		Short: "Build a release tarball from a directory",
		Long: `Create a gzipped tarball laid out like a GitHub tag archive, with every
entry under a <name>-<version>/ directory, and print its sha256.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args[0], ver, out)
		},
	}

	cmd.Flags().StringVar(&ver, "version", "", "Release version, without the leading v")
	cmd.Flags().StringVar(&out, "out", "", "Output path (defaults to <name>-<version>.tar.gz)")
	_ = cmd.MarkFlagRequired("version")

	return cmd
}

func runPack(cmd *cobra.Command, dir, ver, out string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := release.ValidateVersion(ver); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", dir, errors.ErrInvalidPath)
	}
	if _, err := os.Stat(filepath.Join(dir, cfg.Package.File)); err != nil {
		return fmt.Errorf("%s not found in %s: %w", cfg.Package.File, dir, errors.ErrFileNotFound)
	}

	prefix := fmt.Sprintf("%s-%s", cfg.Package.Name, ver)
	if out == "" {
		out = prefix + ".tar.gz"
	}
	if err := archive.NewManager().Create(cmd.Context(), dir, out, prefix); err != nil {
		return err
	}

	sum, err := download.Digest(out)
	if err != nil {
		return err
	}
	logger.Success("Tarball created", logger.Fields{"path": out, "version": ver})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, out)
	return nil
}
