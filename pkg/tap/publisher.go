// Package tap publishes resolved formula manifests into a Homebrew tap checkout.
package tap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/release"
)

// Publisher writes manifests to <Dir>/<relative formula path>.
type Publisher struct {
	dir   string
	force bool
}

// NewPublisher returns a publisher for the tap checked out at dir. With
// force set, an existing manifest with a newer version is overwritten.
func NewPublisher(dir string, force bool) *Publisher {
	return &Publisher{dir: dir, force: force}
}

// Path returns the absolute location for a formula at relPath inside the tap.
func (p *Publisher) Path(relPath string) string {
	return filepath.Join(p.dir, filepath.FromSlash(relPath))
}

// Publish validates manifest and atomically replaces relPath in the tap.
// Nothing is written unless the manifest is fully resolved.
func (p *Publisher) Publish(relPath string, manifest []byte) (string, error) {
	if p.dir == "" {
		return "", fmt.Errorf("tap directory not set: %w", errors.ErrPublish)
	}
	info, err := os.Stat(p.dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("tap directory %s does not exist: %w", p.dir, errors.ErrPublish)
	}

	desc, err := formula.ValidateResolved(manifest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrPublish, err)
	}

	dst := p.Path(relPath)
	if err := p.checkDowngrade(dst, desc.Version); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dst), fsutil.DirModeDefault); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", filepath.Dir(dst))
	}
	if err := fsutil.WriteFileAtomic(dst, manifest, fsutil.FileModeDefault); err != nil {
		return "", fmt.Errorf("write %s: %v: %w", dst, err, errors.ErrPublish)
	}
	logger.Debug("published formula", logger.Fields{"path": dst, "version": desc.Version})
	return dst, nil
}

// checkDowngrade refuses to replace a published manifest with an older
// version. Unparseable existing manifests are replaced.
func (p *Publisher) checkDowngrade(dst, next string) error {
	if p.force {
		return nil
	}
	current, err := os.ReadFile(dst)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read existing formula %s: %v: %w", dst, err, errors.ErrPublish)
	}
	fields, err := formula.ParseFields(current)
	if err != nil {
		logger.Warn("existing formula is unreadable, replacing it", logger.Fields{"path": dst, "error": err.Error()})
		return nil
	}
	if fields.Version == next {
		return nil
	}
	newer, err := release.IsNewer(next, fields.Version)
	if err != nil || newer {
		return nil
	}
	return fmt.Errorf("%s already publishes %s, refusing to downgrade to %s (use --force): %w",
		dst, fields.Version, next, errors.ErrPublish)
}
