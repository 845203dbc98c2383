package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rezkam/allyas/internal/logger"
	pkgerrors "github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/schollz/progressbar/v3"
)

// DefaultUserAgent is sent when none is configured.
const DefaultUserAgent = "allyas/1.0"

// ManagerImpl is a simple HTTP-based download manager with optional checksum verification.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string) *ManagerImpl {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if item.URL == nil {
		return "", fmt.Errorf("nil URL: %w", pkgerrors.ErrDownloadFailed)
	}
	if err := os.MkdirAll(opts.Dir, fsutil.DirModeSecure); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	absPath := filepath.Join(opts.Dir, selectFilename(item))
	if !opts.NoReuse {
		if reuse, ok := tryReuseExisting(absPath, item.Checksum); ok {
			logger.Debug("reusing cached download", logger.Fields{"id": item.ID, "path": reuse})
			return reuse, nil
		}
	}

	resp, err := m.doRequest(ctx, item)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp, absPath, progressWriter(opts.Progress, resp.ContentLength, item))
	if err != nil {
		return "", err
	}
	if item.Checksum != "" {
		got, err := Digest(tmpPath)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
		if got != normalizeHex(item.Checksum) {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("checksum mismatch for %s: expected %s, got %s: %w",
				item.URL, normalizeHex(item.Checksum), got, pkgerrors.ErrFileHashMismatch)
		}
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		return "", err
	}
	logger.Debug("downloaded", logger.Fields{"id": item.ID, "url": item.URL.String(), "path": absPath})
	return absPath, nil
}

// Digest returns the hex-encoded SHA-256 of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", pkgerrors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// selectFilename prefers the explicit name, then the URL's base name, then a
// hash of the URL. GitHub tag archives all end in vX.Y.Z.tar.gz, so the ID is
// prefixed to keep different packages apart.
func selectFilename(item Item) string {
	if item.Filename != "" {
		return item.Filename
	}
	base := path.Base(item.URL.Path)
	if base != "" && base != "." && base != "/" {
		if item.ID != "" {
			return item.ID + "-" + base
		}
		return base
	}
	h := sha256.Sum256([]byte(item.URL.String()))
	return hex.EncodeToString(h[:])
}

func tryReuseExisting(absPath, checksum string) (string, bool) {
	st, err := os.Stat(absPath)
	if err != nil || st.Size() == 0 {
		return "", false
	}
	// Without a checksum we cannot tell a stale copy from a good one.
	if checksum == "" {
		return "", false
	}
	got, err := Digest(absPath)
	if err == nil && got == normalizeHex(checksum) {
		return absPath, true
	}
	return "", false
}

func (m *ManagerImpl) doRequest(ctx context.Context, item Item) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %v: %w", item.URL, err, pkgerrors.ErrDownloadFailed)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status code %d: %w", item.URL, resp.StatusCode, pkgerrors.ErrDownloadFailed)
	}
	return resp, nil
}

func progressWriter(out io.Writer, size int64, item Item) io.Writer {
	if out == nil || size <= 0 {
		return io.Discard
	}
	desc := item.ID
	if desc == "" {
		desc = path.Base(item.URL.Path)
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("downloading "+desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(out) }),
	)
}

func writeBodyToTemp(resp *http.Response, absPath string, progress io.Writer) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(io.MultiWriter(tmp, progress), resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
