package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/release"
	"github.com/spf13/cobra"
)

// NewFormulaCmd creates the formula command with subcommands.
func NewFormulaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Work with the formula template",
		Long:  "Scaffold, check and render the Homebrew formula template",
	}

	cmd.AddCommand(
		newFormulaInitCmd(),
		newFormulaRenderCmd(),
		newFormulaCheckCmd(),
		newFormulaFieldsCmd(),
	)

	return cmd
}

func newFormulaInitCmd() *cobra.Command {
	var (
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a formula template",
		Long:  "Write a new formula template for the configured package, with one placeholder each for version, url and sha256",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFormulaInit(out, force)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Template path (defaults to config)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing template")

	return cmd
}

func newFormulaRenderCmd() *cobra.Command {
	var (
		ver, url, sha string
		templatePath  string
		out           string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the template with an explicit release",
		Long:  "Substitute version, tarball URL and sha256 into the formula template and print the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFormulaRender(cmd, ver, url, sha, templatePath, out)
		},
	}

	cmd.Flags().StringVar(&ver, "version", "", "Release version, without the leading v")
	cmd.Flags().StringVar(&url, "url", "", "Tarball URL")
	cmd.Flags().StringVar(&sha, "sha256", "", "Tarball sha256 checksum")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template path (defaults to config)")
	cmd.Flags().StringVar(&out, "out", "", "Write the manifest here instead of stdout")

	return cmd
}

func newFormulaCheckCmd() *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the template's placeholders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFormulaCheck(cmd, templatePath)
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "Template path (defaults to config)")

	return cmd
}

func newFormulaFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields FILE",
		Short: "Print the fields of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormulaFields(cmd, args[0])
		},
	}

	return cmd
}

func runFormulaInit(out string, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out == "" {
		out = cfg.Template
	}
	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("template already exists at %s (use --force to overwrite)", out)
	}

	tmpl, err := formula.Scaffold(cfg.Metadata())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), fsutil.DirModeDefault); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(out))
	}
	if err := fsutil.WriteFileAtomic(out, tmpl.Body, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}

	logger.Success("Formula template created", logger.Fields{"path": out, "class": cfg.Metadata().Class()})
	return nil
}

func runFormulaRender(cmd *cobra.Command, ver, url, sha, templatePath, out string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tmpl, err := loadTemplate(cfg, templatePath)
	if err != nil {
		return err
	}
	desc, err := release.NewDescriptor(ver, url, sha)
	if err != nil {
		return err
	}
	manifest, err := tmpl.Render(desc)
	if err != nil {
		return err
	}

	if out == "" {
		_, err = cmd.OutOrStdout().Write(manifest)
		return err
	}
	if err := fsutil.WriteFileAtomic(out, manifest, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}
	logger.Success("Formula rendered", logger.Fields{"path": out, "version": desc.Version})
	return nil
}

func runFormulaCheck(cmd *cobra.Command, templatePath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tmpl, err := loadTemplate(cfg, templatePath)
	if err != nil {
		return err
	}
	if err := tmpl.Check(); err != nil {
		return err
	}
	if missing := tmpl.Missing(); len(missing) > 0 {
		logger.Warn("Template leaves fields fixed", logger.Fields{"missing": missing})
	}

	sites := tmpl.Placeholders()
	for _, s := range sites {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: {{%s}}\n", tmpl.Source, s.Line, s.Name)
	}
	logger.Success("Template is valid", logger.Fields{"path": tmpl.Source, "placeholders": len(sites)})
	return nil
}

func runFormulaFields(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	fields, err := formula.ParseFields(data)
	if err != nil {
		return err
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "FIELD\tVALUE")
	for _, row := range [][2]string{
		{"class", fields.Class},
		{"desc", fields.Desc},
		{"homepage", fields.Homepage},
		{"url", fields.URL},
		{"sha256", fields.SHA256},
		{"version", fields.Version},
		{"license", fields.License},
	} {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", row[0], row[1])
	}
	return tabWriter.Flush()
}
