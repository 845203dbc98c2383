package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "allyas", cfg.Package.Name)
	assert.Equal(t, "allyas.sh", cfg.Package.File)
	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultTemplatePath, cfg.Template)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `package:
  name: shell-aliases
  description: Aliases for everyone
  homepage: https://github.com/example/shell-aliases
  license: Apache-2.0
source:
  owner: example
tap:
  dir: /src/homebrew-tap
hooks:
  test:
    script: 'err := ""'
  post_install:
    file: hooks/post.tengo
settings:
  log_level: debug
  http_timeout: 1m`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "shell-aliases", cfg.Package.Name)
	assert.Equal(t, "shell-aliases.sh", cfg.Package.File, "file defaults to <name>.sh")
	assert.Equal(t, "example", cfg.Source.Owner)
	assert.Equal(t, "shell-aliases", cfg.Source.Repo, "repo defaults to the package name")
	assert.Equal(t, "/src/homebrew-tap", cfg.Tap.Dir)
	assert.Equal(t, DefaultFormulaDir, cfg.Tap.FormulaDir)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.LogFormat)
	assert.Equal(t, time.Minute, cfg.Settings.HTTPTimeout)

	assert.Equal(t, []hook.Source{
		{Type: hook.PostInstall, File: "hooks/post.tengo"},
		{Type: hook.Test, Script: `err := ""`},
	}, cfg.HookSources())

	meta := cfg.Metadata()
	assert.Equal(t, "ShellAliases", meta.Class())
	assert.Equal(t, "Formula/shell-aliases.rb", meta.TapPath())
	assert.Equal(t, "https://github.com/example/shell-aliases/archive/refs/tags/v1.0.0.tar.gz", cfg.SourceRepo().TarballURL("v1.0.0"))
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfigFromReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "not yaml", content: "package: [", wantErr: errors.ErrConfigParse},
		{name: "bad log level", content: "settings:\n  log_level: loud\n", wantErr: errors.ErrConfigValidation},
		{name: "bad log format", content: "settings:\n  log_format: xml\n", wantErr: errors.ErrConfigValidation},
		{name: "negative timeout", content: "settings:\n  http_timeout: -1s\n", wantErr: errors.ErrConfigValidation},
		{name: "nested file", content: "package:\n  name: allyas\n  file: etc/allyas.sh\n", wantErr: errors.ErrConfigValidation},
		{name: "ambiguous hook", content: "hooks:\n  test:\n    script: x\n    file: y\n", wantErr: errors.ErrConfigValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Tap.Dir = "/src/homebrew-tap"
	cfg.Hooks.Test = &HookConfig{Script: `err := ""`}

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, fsutil.FileModeDefault, info.Mode().Perm())
	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}

func TestToYAML(t *testing.T) {
	data, err := DefaultConfig().ToYAML()
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "name: allyas")
	assert.Contains(t, out, "template: support/formula-template.rb")
	assert.NotContains(t, out, "hooks:")
}

func TestGetPrefix(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(fsutil.PrefixEnv, "")
	cfg.Settings.Prefix = "/custom"
	assert.Equal(t, "/custom", cfg.GetPrefix())

	t.Setenv(fsutil.PrefixEnv, "/from/env")
	assert.Equal(t, "/from/env", cfg.GetPrefix())

	cfg.Settings.Prefix = ""
	assert.Equal(t, "/from/env", cfg.GetPrefix())
}

func TestGetCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	dir := t.TempDir()
	cfg.Settings.CacheDir = dir

	got, err := cfg.GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestSetAndGetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("http_timeout", "45s"))
	got, err := cfg.GetValue("http_timeout")
	require.NoError(t, err)
	assert.Equal(t, "45s", got)

	require.NoError(t, cfg.SetValue("tap_dir", "/src/tap"))
	got, err = cfg.GetValue("tap_dir")
	require.NoError(t, err)
	assert.Equal(t, "/src/tap", got)

	assert.Error(t, cfg.SetValue("http_timeout", "soon"))
	assert.ErrorIs(t, cfg.SetValue("log_level", "loud"), errors.ErrInvalidLogLevel)
	assert.Error(t, cfg.SetValue("color", "true"))
	_, err = cfg.GetValue("color")
	assert.Error(t, err)
}
