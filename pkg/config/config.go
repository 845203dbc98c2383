// Package config provides configuration management for allyas.
// It describes the package being released (name, description, install file),
// where its tarballs come from, which tap receives the formula, optional
// install hooks and general settings. Configuration is read from a YAML file;
// a missing file yields the defaults for the allyas package itself.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/hook"
	"github.com/rezkam/allyas/pkg/release"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Package PackageConfig `yaml:"package"`
	Source  SourceConfig  `yaml:"source"`

	// Template is the formula template path, relative to the working directory.
	Template string `yaml:"template"`

	Tap   TapConfig   `yaml:"tap"`
	Hooks HooksConfig `yaml:"hooks,omitempty"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// PackageConfig holds the metadata written into the formula.
type PackageConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Homepage    string `yaml:"homepage"`
	License     string `yaml:"license"`
	// File is the shell file installed into <prefix>/etc.
	File string `yaml:"file"`
}

// SourceConfig names the GitHub repository release tarballs are cut from.
type SourceConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// TapConfig locates the tap checkout that receives published formulae.
type TapConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	FormulaDir string `yaml:"formula_dir"`
}

// HookConfig is a Tengo script given inline or as a file.
type HookConfig struct {
	Script string `yaml:"script,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// HooksConfig holds the optional install phase hooks.
type HooksConfig struct {
	PreInstall  *HookConfig `yaml:"pre_install,omitempty"`
	PostInstall *HookConfig `yaml:"post_install,omitempty"`
	Test        *HookConfig `yaml:"test,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Prefix is the Homebrew prefix; $HOMEBREW_PREFIX takes precedence.
	Prefix   string `yaml:"prefix,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	UserAgent   string        `yaml:"user_agent,omitempty"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTemplatePath is where the formula template lives in the package repository.
	DefaultTemplatePath = "support/formula-template.rb"

	// DefaultFormulaDir is the tap directory formulae are published to.
	DefaultFormulaDir = "Formula"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Package: PackageConfig{
			Name:        "allyas",
			Description: "Personal shell aliases for macOS",
			Homepage:    "https://github.com/rezkam/allyas",
			License:     "MIT",
			File:        "allyas.sh",
		},
		Source: SourceConfig{
			Owner: "rezkam",
			Repo:  "allyas",
		},
		Template: DefaultTemplatePath,
		Tap: TapConfig{
			FormulaDir: DefaultFormulaDir,
		},
		Settings: Settings{
			HTTPTimeout: DefaultHTTPTimeout,
			LogLevel:    "info",
			LogFormat:   "text",
		},
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return os.Chmod(absPath, fsutil.FileModeDefault)
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validatePackage(c.Package); err != nil {
		return err
	}
	if err := validateHooks(c.Hooks); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validatePackage(p PackageConfig) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.ErrMissingFieldWithName("package.name")
	}
	if strings.TrimSpace(p.File) == "" {
		return errors.ErrMissingFieldWithName("package.file")
	}
	if strings.ContainsAny(p.File, `/\`) {
		return fmt.Errorf("package.file %q must be a bare file name", p.File)
	}
	return nil
}

func validateHooks(h HooksConfig) error {
	for name, hc := range map[string]*HookConfig{
		"pre_install":  h.PreInstall,
		"post_install": h.PostInstall,
		"test":         h.Test,
	} {
		if hc != nil && hc.Script != "" && hc.File != "" {
			return fmt.Errorf("hooks.%s: script and file are mutually exclusive", name)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutNeg
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(s.LogFormat)] {
		return errors.ErrInvalidLogFormatWithDetails(s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Metadata returns the formula metadata for the configured package.
func (c *Config) Metadata() formula.Metadata {
	return formula.Metadata{
		Name:        c.Package.Name,
		Desc:        c.Package.Description,
		Homepage:    c.Package.Homepage,
		License:     c.Package.License,
		InstallFile: c.Package.File,
		FormulaDir:  c.Tap.FormulaDir,
	}
}

// SourceRepo returns the GitHub repository tarballs are downloaded from.
func (c *Config) SourceRepo() release.Source {
	return release.Source{Owner: c.Source.Owner, Repo: c.Source.Repo}
}

// HookSources returns the configured hooks in execution order.
func (c *Config) HookSources() []hook.Source {
	var sources []hook.Source
	for _, h := range []struct {
		typ hook.HookType
		cfg *HookConfig
	}{
		{hook.PreInstall, c.Hooks.PreInstall},
		{hook.PostInstall, c.Hooks.PostInstall},
		{hook.Test, c.Hooks.Test},
	} {
		if h.cfg == nil {
			continue
		}
		sources = append(sources, hook.Source{Type: h.typ, Script: h.cfg.Script, File: h.cfg.File})
	}
	return sources
}

// GetPrefix returns the Homebrew prefix. $HOMEBREW_PREFIX wins over the
// configured value, which wins over the platform default.
func (c *Config) GetPrefix() string {
	if os.Getenv(fsutil.PrefixEnv) != "" || c.Settings.Prefix == "" {
		return fsutil.DefaultPrefix()
	}
	return c.Settings.Prefix
}

// GetCacheDir returns the tarball cache directory.
func (c *Config) GetCacheDir() (string, error) {
	if c.Settings.CacheDir != "" {
		return filepath.Abs(c.Settings.CacheDir)
	}
	return fsutil.GetTarballCacheDir()
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Package.Name == "" {
		c.Package = defaults.Package
	}
	if c.Package.File == "" {
		c.Package.File = c.Package.Name + ".sh"
	}
	if c.Source.Owner == "" && c.Source.Repo == "" {
		c.Source = defaults.Source
	}
	if c.Source.Repo == "" {
		c.Source.Repo = c.Package.Name
	}
	if c.Template == "" {
		c.Template = defaults.Template
	}
	if c.Tap.FormulaDir == "" {
		c.Tap.FormulaDir = defaults.Tap.FormulaDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
}
