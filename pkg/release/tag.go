package release

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/rezkam/allyas/pkg/errors"
)

// Release tags look like v0.0.2 or v1.4.0-rc.1.
var tagPattern = regexp.MustCompile(`^v(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(-[0-9A-Za-z.-]+)?$`)

// Source locates a GitHub repository that publishes tag tarballs.
type Source struct {
	Owner string
	Repo  string
}

// VersionFromTag strips the leading "v" from a release tag.
func VersionFromTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "refs/tags/")
	if !tagPattern.MatchString(tag) {
		return "", errors.Wrapf(errors.ErrInvalidTag, "%q: expected vX.Y.Z", tag)
	}
	v := strings.TrimPrefix(tag, "v")
	if _, err := version.NewSemver(v); err != nil {
		return "", errors.Wrapf(errors.ErrInvalidTag, "%q: %v", tag, err)
	}
	return v, nil
}

// TagForVersion is the inverse of VersionFromTag.
func TagForVersion(v string) string {
	return "v" + strings.TrimPrefix(v, "v")
}

// TarballURL returns the archive URL GitHub serves for a tag.
func (s Source) TarballURL(tag string) string {
	return fmt.Sprintf("https://github.com/%s/%s/archive/refs/tags/%s.tar.gz", s.Owner, s.Repo, tag)
}

// Homepage returns the repository page.
func (s Source) Homepage() string {
	return fmt.Sprintf("https://github.com/%s/%s", s.Owner, s.Repo)
}

// IsNewer reports whether candidate is strictly newer than current.
// An empty current version is always older.
func IsNewer(candidate, current string) (bool, error) {
	if current == "" {
		return true, nil
	}
	c, err := version.NewSemver(candidate)
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidVersion, "%q: %v", candidate, err)
	}
	cur, err := version.NewSemver(current)
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidVersion, "%q: %v", current, err)
	}
	return c.GreaterThan(cur), nil
}
