// Package installer places a package's shell file into the shared etc
// directory and verifies the result.
package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/fsutil"
)

// Installer copies one source file into EtcDir.
type Installer struct {
	etcDir string
}

// New creates a new Installer writing into etcDir.
func New(etcDir string) *Installer {
	return &Installer{etcDir: etcDir}
}

// EtcDir returns the destination directory.
func (i *Installer) EtcDir() string {
	return i.etcDir
}

// Destination returns where file ends up once installed.
func (i *Installer) Destination(file string) string {
	return filepath.Join(i.etcDir, filepath.Base(file))
}

// Install copies sourceDir/file into the etc directory with identical bytes
// and returns the destination path.
func (i *Installer) Install(sourceDir, file string) (string, error) {
	src := filepath.Join(sourceDir, file)
	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", src, errors.ErrFileNotFound)
	}

	if err := os.MkdirAll(i.etcDir, fsutil.DirModeDefault); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", i.etcDir)
	}

	dst := i.Destination(file)
	if err := fsutil.CopyAtomic(src, dst, fsutil.FileModeDefault); err != nil {
		return "", errors.Wrapf(err, "failed to install %s", file)
	}
	logger.Debug("installed file", logger.Fields{"source": src, "destination": dst})
	return dst, nil
}

// Uninstall removes the installed file. A file that is already gone yields
// ErrNotInstalled.
func (i *Installer) Uninstall(file string) (string, error) {
	dst := i.Destination(file)
	if err := os.Remove(dst); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", dst, errors.ErrNotInstalled)
		}
		return "", errors.Wrapf(err, "failed to remove %s", dst)
	}
	logger.Debug("removed file", logger.Fields{"path": dst})
	return dst, nil
}

// LocateSource finds file inside an extracted tarball. GitHub tag archives
// wrap everything in a single <repo>-<version>/ directory, so the file is
// looked up at the root first and then under a lone top-level directory.
// The returned directory is the one that contains file.
func LocateSource(extractDir, file string) (string, error) {
	if isRegular(filepath.Join(extractDir, file)) {
		return extractDir, nil
	}

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", extractDir)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 1 {
		nested := filepath.Join(extractDir, dirs[0])
		if isRegular(filepath.Join(nested, file)) {
			return nested, nil
		}
	}
	return "", fmt.Errorf("%s not found in archive: %w", file, errors.ErrFileNotFound)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
