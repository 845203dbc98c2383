package download

import (
	"context"
	"io"
	"net/url"
)

// Manager downloads release tarballs into a local cache.
type Manager interface {
	// Fetch downloads a single item to a deterministic location inside opts.Dir
	// and returns the absolute local file path. When item.Checksum is set, a
	// mismatch is reported as errors.ErrFileHashMismatch and nothing is kept.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item represents one remote resource to download.
type Item struct {
	ID       string   // stable identifier used in logs and progress output
	URL      *url.URL // source URL to download
	Checksum string   // optional hex-encoded SHA-256 checksum; if provided, will be verified
	Filename string   // optional preferred filename; if empty, a name will be derived
}

// Options control the behavior of the download manager.
type Options struct {
	Dir      string    // destination directory (cache). Must be absolute.
	Progress io.Writer // when non-nil, a progress bar is drawn here
	NoReuse  bool      // always download, even when a cached copy exists
}
