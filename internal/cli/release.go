package cli

import (
	"fmt"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/orchestrator"
	"github.com/rezkam/allyas/pkg/tap"
	"github.com/spf13/cobra"
)

// NewReleaseCmd creates the release command.
func NewReleaseCmd() *cobra.Command {
	var (
		tapDir       string
		url          string
		templatePath string
		cacheDir     string
		dryRun       bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "release TAG",
		Short: "Publish the formula for a release tag",
		Long: `Download the tarball for a vX.Y.Z tag, compute its sha256, render the
formula template and write the result into the tap checkout.
Nothing is written unless every step succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args[0], releaseFlags{
				tapDir:       tapDir,
				url:          url,
				templatePath: templatePath,
				cacheDir:     cacheDir,
				dryRun:       dryRun,
				force:        force,
			})
		},
	}

	cmd.Flags().StringVar(&tapDir, "tap-dir", "", "Tap checkout to publish into (defaults to config)")
	cmd.Flags().StringVar(&url, "url", "", "Tarball URL (defaults to the GitHub tag archive)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template path (defaults to config)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Download cache directory (defaults to config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the manifest instead of publishing it")
	cmd.Flags().BoolVar(&force, "force", false, "Replace a formula that publishes a newer version")

	return cmd
}

type releaseFlags struct {
	tapDir       string
	url          string
	templatePath string
	cacheDir     string
	dryRun       bool
	force        bool
}

func runRelease(cmd *cobra.Command, tag string, flags releaseFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tmpl, err := loadTemplate(cfg, flags.templatePath)
	if err != nil {
		return err
	}
	cacheDir, err := resolveCacheDir(cfg, flags.cacheDir)
	if err != nil {
		return err
	}

	tapDir := flags.tapDir
	if tapDir == "" {
		tapDir = cfg.Tap.Dir
	}
	if tapDir == "" && !flags.dryRun {
		return fmt.Errorf("no tap directory configured (use --tap-dir or tap.dir): %w", errors.ErrPublish)
	}

	orch := orchestrator.New(loadDownloadManager(cfg), nil, nil, nil, tap.NewPublisher(tapDir, flags.force), nil, eventHooks())
	res, err := orch.Release(cmd.Context(), tag, orchestrator.ReleaseOptions{
		Template: tmpl,
		Meta:     cfg.Metadata(),
		Source:   cfg.SourceRepo(),
		URL:      flags.url,
		CacheDir: cacheDir,
		Progress: progressOutput(),
		DryRun:   flags.dryRun,
	})
	if err != nil {
		return fmt.Errorf("release %s failed: %w", tag, err)
	}

	if flags.dryRun {
		_, err = cmd.OutOrStdout().Write(res.Manifest)
		return err
	}
	logger.Success("Formula published", logger.Fields{
		"path":    res.Path,
		"version": res.Descriptor.Version,
		"sha256":  res.Descriptor.SHA256,
	})
	return nil
}
