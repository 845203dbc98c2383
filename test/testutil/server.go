package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/config"
	"github.com/rezkam/allyas/pkg/fsutil"
)

// TarballServer serves release tarballs from a directory.
type TarballServer struct {
	Server *httptest.Server
	URL    string
	Dir    string
}

// NewTarballServer starts a server for the files in dir. It is closed when
// the test finishes.
func NewTarballServer(t *testing.T, dir string) *TarballServer {
	t.Helper()
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)

	return &TarballServer{
		Server: srv,
		URL:    srv.URL,
		Dir:    dir,
	}
}

// TarballURL returns the URL the server publishes name under.
func (ts *TarballServer) TarballURL(name string) string {
	return ts.URL + "/" + name
}

// getProjectRoot returns the absolute path to the project root directory
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Failed to get current file path")
	}
	// Navigate up to the project root (2 levels up from test/testutil)
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// TemplatePath returns the formula template checked into the repository.
func TemplatePath() string {
	return filepath.Join(getProjectRoot(), filepath.FromSlash(config.DefaultTemplatePath))
}

// ConfigOptions overrides the defaults written by SetupTestConfig.
type ConfigOptions struct {
	Prefix   string
	CacheDir string
	TapDir   string
	Template string
	Hooks    config.HooksConfig
}

// SetupTestConfig writes a configuration for the allyas package into a
// temporary directory and returns its path. Prefix, cache and tap default
// to fresh temporary directories; the template defaults to TemplatePath.
func SetupTestConfig(t *testing.T, opts ConfigOptions) string {
	t.Helper()
	tempDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Template = orDefault(opts.Template, TemplatePath())
	cfg.Settings.Prefix = orDefault(opts.Prefix, filepath.Join(tempDir, "prefix"))
	cfg.Settings.CacheDir = orDefault(opts.CacheDir, filepath.Join(tempDir, "cache"))
	cfg.Settings.HTTPTimeout = 5 * time.Second
	cfg.Tap.Dir = opts.TapDir
	cfg.Hooks = opts.Hooks

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := cfg.SaveConfig(configPath); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	logger.Debugf("Wrote test config to: %s", configPath)

	// $HOMEBREW_PREFIX would take precedence over the configured prefix.
	t.Setenv(fsutil.PrefixEnv, "")
	return configPath
}

// WriteReleaseTree creates a directory holding the files of a release.
func WriteReleaseTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	return dir
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
