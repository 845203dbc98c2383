//go:generate mockgen -destination=./mocks/orchestrator.go . Downloader,Extractor,FileInstaller,Verifier,Publisher,HookRunner

package orchestrator

import (
	"context"
	"io"

	"github.com/rezkam/allyas/pkg/download"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/hook"
	"github.com/rezkam/allyas/pkg/release"
)

// Downloader fetches release tarballs.
type Downloader interface {
	Fetch(ctx context.Context, item download.Item, opts download.Options) (string, error)
}

// Extractor unpacks a tarball into a directory.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// FileInstaller is the subset of the installer used by the orchestrator.
type FileInstaller interface {
	Destination(file string) string
	Install(sourceDir, file string) (string, error)
	Uninstall(file string) (string, error)
}

// Verifier checks an installed file.
type Verifier interface {
	Verify(path string) error
}

// Publisher writes a resolved manifest into the tap.
type Publisher interface {
	Publish(relPath string, manifest []byte) (string, error)
}

// HookRunner runs the configured Tengo hook for a phase, if any.
type HookRunner interface {
	Execute(ctx context.Context, hookType hook.HookType, hc hook.HookContext) error
}

// Orchestrator ties downloading, rendering, publishing and installing together.
type Orchestrator struct {
	DL        Downloader
	Archive   Extractor
	Installer FileInstaller
	Verifier  Verifier
	Publisher Publisher
	Scripts   HookRunner
	Hooks     Hooks // Hooks for progress and event notifications

	// HookVars are extra variables handed to every hook script.
	HookVars map[string]interface{}
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|downloading|hashing|rendering|publishing|extracting|installing|verifying|done
	ID    string // package name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// ReleaseOptions control the release pipeline.
type ReleaseOptions struct {
	Template *formula.Template
	Meta     formula.Metadata
	Source   release.Source
	// URL overrides the tarball URL derived from Source.
	URL      string
	CacheDir string
	Progress io.Writer
	DryRun   bool
}

// ReleaseResult is what a release produced.
type ReleaseResult struct {
	Descriptor *release.Descriptor
	Manifest   []byte
	// Path is empty for dry runs.
	Path string
}

// InstallOptions control the install pipeline.
type InstallOptions struct {
	PackageName string
	File        string
	CacheDir    string
	Progress    io.Writer
}

// InstallResult describes a completed install.
type InstallResult struct {
	Descriptor *release.Descriptor
	Path       string
	Caveats    string
}
