package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/pkg/download"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/hook"
	"github.com/rezkam/allyas/pkg/installer"
	"github.com/rezkam/allyas/pkg/release"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Release turns a tag into a published formula: the tarball for the tag is
// downloaded and hashed, the template is rendered with the resulting release
// descriptor and the manifest is written into the tap. Any failure leaves the
// tap untouched.
func (o *Orchestrator) Release(ctx context.Context, tag string, opts ReleaseOptions) (*ReleaseResult, error) {
	if o.DL == nil {
		return nil, fmt.Errorf("download manager is not configured")
	}
	if opts.Template == nil {
		return nil, fmt.Errorf("formula template is not configured")
	}
	id := opts.Meta.Name

	emit(o.Hooks, Event{Phase: "resolving", ID: id, Msg: tag})
	ver, err := release.VersionFromTag(tag)
	if err != nil {
		return nil, err
	}
	rawURL := opts.URL
	if rawURL == "" {
		rawURL = opts.Source.TarballURL(release.TagForVersion(ver))
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", rawURL, err, errors.ErrInvalidURL)
	}

	emit(o.Hooks, Event{Phase: "downloading", ID: id, Msg: rawURL})
	path, err := o.DL.Fetch(ctx, download.Item{ID: id, URL: u}, download.Options{
		Dir:      opts.CacheDir,
		Progress: opts.Progress,
		NoReuse:  true,
	})
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "hashing", ID: id, Msg: path})
	sum, err := download.Digest(path)
	if err != nil {
		return nil, err
	}
	desc, err := release.NewDescriptor(ver, rawURL, sum)
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "rendering", ID: id, Msg: opts.Template.Source})
	manifest, err := opts.Template.Render(desc)
	if err != nil {
		return nil, err
	}
	if _, err := formula.ValidateResolved(manifest); err != nil {
		return nil, err
	}

	result := &ReleaseResult{Descriptor: desc, Manifest: manifest}
	if opts.DryRun {
		emit(o.Hooks, Event{Phase: "done", ID: id, Msg: "dry-run"})
		return result, nil
	}

	if o.Publisher == nil {
		return nil, fmt.Errorf("tap publisher is not configured")
	}
	emit(o.Hooks, Event{Phase: "publishing", ID: id, Msg: opts.Meta.TapPath()})
	result.Path, err = o.Publisher.Publish(opts.Meta.TapPath(), manifest)
	if err != nil {
		return nil, err
	}
	emit(o.Hooks, Event{Phase: "done", ID: id, Msg: desc.Version})
	return result, nil
}

// Install fetches the tarball a resolved manifest points at, checks it
// against the manifest's sha256, extracts it and copies the package file
// into the etc directory. A checksum mismatch aborts before anything is
// copied.
func (o *Orchestrator) Install(ctx context.Context, manifest []byte, opts InstallOptions) (*InstallResult, error) {
	if o.DL == nil || o.Archive == nil || o.Installer == nil {
		return nil, fmt.Errorf("installer is not configured")
	}
	id := opts.PackageName

	emit(o.Hooks, Event{Phase: "resolving", ID: id})
	desc, err := formula.ValidateResolved(manifest)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(desc.TarballURL)
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", desc.TarballURL, err, errors.ErrInvalidURL)
	}

	emit(o.Hooks, Event{Phase: "downloading", ID: id, Msg: desc.TarballURL})
	tarball, err := o.DL.Fetch(ctx, download.Item{ID: id, URL: u, Checksum: desc.SHA256}, download.Options{
		Dir:      opts.CacheDir,
		Progress: opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.CacheDir, fsutil.DirModeSecure); err != nil {
		return nil, errors.Wrap(err, "could not create cache dir")
	}
	staging, err := os.MkdirTemp(opts.CacheDir, "staging-*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create staging dir")
	}
	defer func() { _ = os.RemoveAll(staging) }()

	emit(o.Hooks, Event{Phase: "extracting", ID: id, Msg: tarball})
	if err := o.Archive.ExtractAll(ctx, tarball, staging); err != nil {
		return nil, err
	}
	srcDir, err := installer.LocateSource(staging, opts.File)
	if err != nil {
		return nil, err
	}

	hc := hook.HookContext{
		PackageName:    opts.PackageName,
		PackageVersion: desc.Version,
		SourcePath:     filepath.Join(srcDir, opts.File),
		InstallPath:    o.Installer.Destination(opts.File),
		Vars:           o.HookVars,
	}
	if err := o.runHook(ctx, hook.PreInstall, hc); err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "installing", ID: id, Msg: hc.InstallPath})
	dst, err := o.Installer.Install(srcDir, opts.File)
	if err != nil {
		return nil, err
	}
	if err := o.runHook(ctx, hook.PostInstall, hc); err != nil {
		return nil, err
	}

	if err := o.verify(ctx, dst, hc); err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "done", ID: id, Msg: desc.Version})
	return &InstallResult{
		Descriptor: desc,
		Path:       dst,
		Caveats:    formula.ParseCaveats(manifest),
	}, nil
}

// Verify checks an existing installation of file without reinstalling it.
func (o *Orchestrator) Verify(ctx context.Context, packageName, file string) (string, error) {
	if o.Installer == nil {
		return "", fmt.Errorf("installer is not configured")
	}
	dst := o.Installer.Destination(file)
	hc := hook.HookContext{PackageName: packageName, InstallPath: dst, Vars: o.HookVars}
	if err := o.verify(ctx, dst, hc); err != nil {
		return "", err
	}
	return dst, nil
}

// Uninstall removes the installed file.
func (o *Orchestrator) Uninstall(_ context.Context, packageName, file string) (string, error) {
	if o.Installer == nil {
		return "", fmt.Errorf("installer is not configured")
	}
	emit(o.Hooks, Event{Phase: "uninstalling", ID: packageName, Msg: file})
	removed, err := o.Installer.Uninstall(file)
	if err != nil {
		return "", err
	}
	emit(o.Hooks, Event{Phase: "done", ID: packageName})
	return removed, nil
}

func (o *Orchestrator) verify(ctx context.Context, dst string, hc hook.HookContext) error {
	if o.Verifier == nil {
		return fmt.Errorf("verifier is not configured")
	}
	emit(o.Hooks, Event{Phase: "verifying", ID: hc.PackageName, Msg: dst})
	if err := o.Verifier.Verify(dst); err != nil {
		return err
	}
	if err := o.runHook(ctx, hook.Test, hc); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrVerificationFailed, err)
	}
	return nil
}

func (o *Orchestrator) runHook(ctx context.Context, typ hook.HookType, hc hook.HookContext) error {
	if o.Scripts == nil {
		return nil
	}
	return o.Scripts.Execute(ctx, typ, hc)
}

// New constructs an Orchestrator from existing managers. Helper for wiring.
func New(dl Downloader, archive Extractor, inst FileInstaller, verifier Verifier, publisher Publisher, scripts HookRunner, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		DL:        dl,
		Archive:   archive,
		Installer: inst,
		Verifier:  verifier,
		Publisher: publisher,
		Scripts:   scripts,
		Hooks:     hooks,
	}
}
