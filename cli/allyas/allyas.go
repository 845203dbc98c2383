package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rezkam/allyas/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allyas",
		Short: "Release and install tooling for the allyas Homebrew formula",
		Long: `allyas keeps the Homebrew formula for the allyas shell aliases in step
with its releases:
- Release: hash a tagged tarball and publish the rendered formula to a tap
- Install: fetch, verify and copy allyas.sh into <prefix>/etc
- Template: scaffold, check and render the formula template`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.LogFormat = &logFormat

	cmd.AddCommand(
		cli.NewReleaseCmd(),
		cli.NewInstallCmd(),
		cli.NewVerifyCmd(),
		cli.NewUninstallCmd(),
		cli.NewCaveatsCmd(),
		cli.NewFormulaCmd(),
		cli.NewPackCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
