package cli

import (
	"fmt"
	"os"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		prefix   string
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "install FORMULA",
		Short: "Install the package from a rendered formula",
		Long: `Download the tarball a rendered formula points at, check it against the
formula's sha256 and copy the package file into <prefix>/etc.
The installation is verified before the caveats are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args[0], prefix, cacheDir)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Homebrew prefix (defaults to $HOMEBREW_PREFIX or config)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Download cache directory (defaults to config)")

	return cmd
}

func runInstall(cmd *cobra.Command, formulaPath, prefix, cacheDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manifest, err := os.ReadFile(formulaPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read formula %s", formulaPath)
	}
	cacheDir, err = resolveCacheDir(cfg, cacheDir)
	if err != nil {
		return err
	}

	orch, err := newInstallOrchestrator(cfg, resolvePrefix(cfg, prefix))
	if err != nil {
		return err
	}
	res, err := orch.Install(cmd.Context(), manifest, orchestrator.InstallOptions{
		PackageName: cfg.Package.Name,
		File:        cfg.Package.File,
		CacheDir:    cacheDir,
		Progress:    progressOutput(),
	})
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	logger.Success("Package installed", logger.Fields{
		"package": cfg.Package.Name,
		"version": res.Descriptor.Version,
		"path":    res.Path,
	})
	if res.Caveats != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Caveats)
	}
	return nil
}
