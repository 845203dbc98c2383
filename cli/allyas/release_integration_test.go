//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelease_PublishesFormulaToTap(t *testing.T) {
	srv := testutil.NewTarballServer(t, t.TempDir())
	tapDir := newTap(t)
	cfgPath := testutil.SetupTestConfig(t, testutil.ConfigOptions{TapDir: tapDir})
	url, sum := packRelease(t, cfgPath, srv, "0.0.2")

	mustRunCLI(t, "--config", cfgPath, "release", "v0.0.2", "--url", url)

	manifest, err := os.ReadFile(filepath.Join(tapDir, "Formula", "allyas.rb"))
	require.NoError(t, err)
	fields, err := formula.ParseFields(manifest)
	require.NoError(t, err)
	assert.Equal(t, "Allyas", fields.Class)
	assert.Equal(t, "0.0.2", fields.Version)
	assert.Equal(t, url, fields.URL)
	assert.Equal(t, sum, fields.SHA256)
	assert.NotContains(t, string(manifest), "{{")
}

func TestRelease_DryRunPrintsManifest(t *testing.T) {
	srv := testutil.NewTarballServer(t, t.TempDir())
	cfgPath := testutil.SetupTestConfig(t, testutil.ConfigOptions{})
	url, sum := packRelease(t, cfgPath, srv, "1.2.3")

	out := mustRunCLI(t, "--config", cfgPath, "release", "v1.2.3", "--url", url, "--dry-run")

	fields, err := formula.ParseFields([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", fields.Version)
	assert.Equal(t, sum, fields.SHA256)
}

func TestRelease_Failures(t *testing.T) {
	srv := testutil.NewTarballServer(t, t.TempDir())
	tapDir := newTap(t)
	cfgPath := testutil.SetupTestConfig(t, testutil.ConfigOptions{TapDir: tapDir})
	url, _ := packRelease(t, cfgPath, srv, "0.0.2")

	t.Run("tag without v", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfgPath, "release", "0.0.2", "--url", url)
		require.ErrorIs(t, err, errors.ErrInvalidTag)
	})

	t.Run("missing tarball", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfgPath, "release", "v0.0.3", "--url", srv.TarballURL("allyas-0.0.3.tar.gz"))
		require.ErrorIs(t, err, errors.ErrDownloadFailed)
	})

	t.Run("no tap configured", func(t *testing.T) {
		bare := testutil.SetupTestConfig(t, testutil.ConfigOptions{})
		_, err := runCLI(t, "--config", bare, "release", "v0.0.2", "--url", url)
		require.ErrorIs(t, err, errors.ErrPublish)
	})

	_, err := os.Stat(filepath.Join(tapDir, "Formula", "allyas.rb"))
	assert.True(t, os.IsNotExist(err), "failed releases must not publish")
}

func TestRelease_RefusesDowngrade(t *testing.T) {
	srv := testutil.NewTarballServer(t, t.TempDir())
	tapDir := newTap(t)
	cfgPath := testutil.SetupTestConfig(t, testutil.ConfigOptions{TapDir: tapDir})
	newURL, _ := packRelease(t, cfgPath, srv, "0.0.3")
	oldURL, _ := packRelease(t, cfgPath, srv, "0.0.2")

	mustRunCLI(t, "--config", cfgPath, "release", "v0.0.3", "--url", newURL)

	_, err := runCLI(t, "--config", cfgPath, "release", "v0.0.2", "--url", oldURL)
	require.ErrorIs(t, err, errors.ErrPublish)

	mustRunCLI(t, "--config", cfgPath, "release", "v0.0.2", "--url", oldURL, "--force")
	manifest, err := os.ReadFile(filepath.Join(tapDir, "Formula", "allyas.rb"))
	require.NoError(t, err)
	fields, err := formula.ParseFields(manifest)
	require.NoError(t, err)
	assert.Equal(t, "0.0.2", fields.Version)
}
