//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rezkam/allyas/test/testutil"
	"github.com/stretchr/testify/require"
)

const aliasesScript = "# allyas: personal shell aliases\nalias ll='ls -la'\nalias gs='git status'\n"

// runCLI executes the root command with args and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRunCLI is runCLI for commands that are expected to succeed.
func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "allyas %s", strings.Join(args, " "))
	return out
}

// packRelease packs a release tree for ver into the server directory and
// returns the tarball URL and its sha256.
func packRelease(t *testing.T, cfgPath string, srv *testutil.TarballServer, ver string) (string, string) {
	t.Helper()
	src := testutil.WriteReleaseTree(t, map[string]string{
		"allyas.sh": aliasesScript,
		"README.md": "# allyas\n",
	})
	name := "allyas-" + ver + ".tar.gz"
	out := mustRunCLI(t, "--config", cfgPath, "pack", src, "--version", ver, "--out", filepath.Join(srv.Dir, name))

	fields := strings.Fields(out)
	require.Len(t, fields, 2, "pack should print the checksum and path")
	return srv.TarballURL(name), fields[0]
}

// newTap creates an empty tap checkout.
func newTap(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "homebrew-tap")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}
