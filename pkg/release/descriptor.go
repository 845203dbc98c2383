// Package release models the release descriptor that fills a formula
// template: the version, the tarball URL and the tarball's sha256 checksum.
package release

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/rezkam/allyas/pkg/errors"
)

// Field names as they appear in the formula template placeholders.
const (
	FieldVersion    = "version"
	FieldTarballURL = "tarballUrl"
	FieldSHA256     = "sha256"
)

// SHA256HexLength is the length of a hex-encoded sha256 digest.
const SHA256HexLength = 64

// Descriptor identifies one published artifact.
type Descriptor struct {
	Version    string `json:"version" yaml:"version"`
	TarballURL string `json:"tarball_url" yaml:"tarball_url"`
	SHA256     string `json:"sha256" yaml:"sha256"`
}

// NewDescriptor trims and normalizes the given values and validates the result.
func NewDescriptor(ver, tarballURL, sha256 string) (*Descriptor, error) {
	d := &Descriptor{
		Version:    strings.TrimSpace(ver),
		TarballURL: strings.TrimSpace(tarballURL),
		SHA256:     strings.ToLower(strings.TrimSpace(sha256)),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that every field is present and well formed.
// Empty fields are reported first, in placeholder order.
func (d *Descriptor) Validate() error {
	if d == nil {
		return errors.ErrMissingFieldWithName(FieldVersion)
	}
	for _, f := range []struct{ name, value string }{
		{FieldVersion, d.Version},
		{FieldTarballURL, d.TarballURL},
		{FieldSHA256, d.SHA256},
	} {
		if strings.TrimSpace(f.value) == "" {
			return errors.ErrMissingFieldWithName(f.name)
		}
	}

	if err := ValidateVersion(d.Version); err != nil {
		return err
	}
	if err := validateTarballURL(d.TarballURL); err != nil {
		return err
	}
	return ValidateChecksum(d.SHA256)
}

// Values maps placeholder names to the descriptor's values.
func (d *Descriptor) Values() map[string]string {
	return map[string]string{
		FieldVersion:    d.Version,
		FieldTarballURL: d.TarballURL,
		FieldSHA256:     d.SHA256,
	}
}

// SemVer returns the parsed version.
func (d *Descriptor) SemVer() (*version.Version, error) {
	return version.NewSemver(d.Version)
}

// ValidateVersion accepts a semantic version without the tag's leading v.
func ValidateVersion(v string) error {
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		return errors.Wrapf(errors.ErrInvalidVersion, "%q: drop the tag prefix", v)
	}
	if _, err := version.NewSemver(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidVersion, "%q: %v", v, err)
	}
	return nil
}

func validateTarballURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidURL, "%q: %v", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.Wrapf(errors.ErrInvalidURL, "%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return errors.Wrapf(errors.ErrInvalidURL, "%q: missing host", raw)
	}
	if strings.ContainsAny(raw, "\"\\") {
		return errors.Wrapf(errors.ErrInvalidURL, "%q: quotes and backslashes are not allowed", raw)
	}
	// The url is placed in a double-quoted Ruby string.
	for _, seq := range rubyInterpolation {
		if strings.Contains(raw, seq) {
			return errors.Wrapf(errors.ErrInvalidURL, "%q: %s would be interpolated by Ruby", raw, seq)
		}
	}
	return nil
}

var rubyInterpolation = []string{"#{", "#$", "#@"}

// ValidateChecksum checks that sum is a 64 character lower-case hex digest.
func ValidateChecksum(sum string) error {
	if len(sum) != SHA256HexLength {
		return errors.Wrapf(errors.ErrInvalidChecksum, "expected %d hex characters, got %d", SHA256HexLength, len(sum))
	}
	if sum != strings.ToLower(sum) {
		return errors.Wrap(errors.ErrInvalidChecksum, "checksum must be lower case")
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return errors.Wrapf(errors.ErrInvalidChecksum, "%q is not hex", sum)
	}
	return nil
}
