// Package formula renders Homebrew formula templates.
//
// A template is a Ruby formula whose version, url and sha256 fields hold the
// placeholders {{version}}, {{tarballUrl}} and {{sha256}}. Rendering replaces
// each placeholder with the matching release.Descriptor value and leaves every
// other byte of the template untouched.
//
// Rendering is idempotent. A document with no placeholders left (an already
// rendered formula) is returned unchanged instead of being rejected.
package formula

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/release"
)

// placeholderField maps each placeholder to the formula field that must hold it.
var placeholderField = map[string]string{
	release.FieldVersion:    "version",
	release.FieldTarballURL: "url",
	release.FieldSHA256:     "sha256",
}

var (
	placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	openDelimiter      = []byte("{{")
)

// Template is a formula template held in memory.
type Template struct {
	// Source names where the template came from, for error messages.
	Source string
	Body   []byte
}

// Site is one placeholder occurrence.
type Site struct {
	Name   string
	Line   int // 1-based
	Offset int // byte offset of "{{"
}

// LoadTemplate reads a template from path.
func LoadTemplate(path string) (*Template, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTemplateLoad, "%s: %v", path, err)
	}
	return &Template{Source: path, Body: body}, nil
}

// NewTemplate wraps an in-memory template body.
func NewTemplate(source string, body []byte) *Template {
	return &Template{Source: source, Body: body}
}

// Placeholders returns every placeholder site in document order.
func (t *Template) Placeholders() []Site {
	var sites []Site
	for _, m := range placeholderPattern.FindAllSubmatchIndex(t.Body, -1) {
		sites = append(sites, Site{
			Name:   string(t.Body[m[2]:m[3]]),
			Line:   bytes.Count(t.Body[:m[0]], []byte("\n")) + 1,
			Offset: m[0],
		})
	}
	return sites
}

// Check validates the placeholder layout: only known names, each at most
// once, each inside its own field.
func (t *Template) Check() error {
	seen := make(map[string]Site)
	for _, site := range t.Placeholders() {
		field, known := placeholderField[site.Name]
		if !known {
			return errors.Wrapf(errors.ErrUnknownPlaceholder, "%s:%d: {{%s}}", t.Source, site.Line, site.Name)
		}
		if first, dup := seen[site.Name]; dup {
			return errors.Wrapf(errors.ErrDuplicatePlaceholder, "%s:%d: {{%s}} (first on line %d)",
				t.Source, site.Line, site.Name, first.Line)
		}
		seen[site.Name] = site

		if !fieldLinePattern(field, site.Name).Match(lineAt(t.Body, site.Offset)) {
			return errors.Wrapf(errors.ErrMisplacedPlaceholder, "%s:%d: {{%s}} must be the value of %q",
				t.Source, site.Line, site.Name, field)
		}
	}
	return nil
}

// Missing lists the known placeholders absent from the template, sorted.
func (t *Template) Missing() []string {
	present := make(map[string]bool)
	for _, site := range t.Placeholders() {
		present[site.Name] = true
	}
	var missing []string
	for name := range placeholderField {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Render substitutes the descriptor into the template.
func (t *Template) Render(desc *release.Descriptor) ([]byte, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := t.Check(); err != nil {
		return nil, err
	}

	sites := t.Placeholders()
	if len(sites) == 0 {
		logger.Debug("template has no placeholders, leaving it unchanged", logger.Fields{"source": t.Source})
		if bytes.Contains(t.Body, openDelimiter) {
			return nil, unresolvedError(t.Source, t.Body)
		}
		return bytes.Clone(t.Body), nil
	}

	values := desc.Values()
	pairs := make([]string, 0, len(sites)*2)
	for _, site := range sites {
		pairs = append(pairs, token(site.Name), values[site.Name])
	}
	out := []byte(strings.NewReplacer(pairs...).Replace(string(t.Body)))

	if bytes.Contains(out, openDelimiter) {
		return nil, unresolvedError(t.Source, out)
	}

	logger.DebugfWithFields(logger.Fields{"source": t.Source, "version": desc.Version},
		"substituted %d placeholders", len(sites))
	return out, nil
}

// Render is a convenience wrapper around Template.Render.
func Render(body []byte, desc *release.Descriptor) ([]byte, error) {
	return NewTemplate("template", body).Render(desc)
}

// ValidateResolved checks that a manifest has no placeholder syntax left and
// that its version, url and sha256 fields are present and well formed. It
// returns the release those fields describe.
func ValidateResolved(manifest []byte) (*release.Descriptor, error) {
	if bytes.Contains(manifest, openDelimiter) {
		return nil, unresolvedError("manifest", manifest)
	}
	fields, err := ParseFields(manifest)
	if err != nil {
		return nil, err
	}
	return release.NewDescriptor(fields.Version, fields.URL, fields.SHA256)
}

func token(name string) string {
	return "{{" + name + "}}"
}

func unresolvedError(source string, body []byte) error {
	idx := bytes.Index(body, openDelimiter)
	line := bytes.Count(body[:idx], []byte("\n")) + 1
	return errors.Wrapf(errors.ErrUnresolvedPlaceholder, "%s:%d", source, line)
}

func fieldLinePattern(field, name string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^\s*%s\s+"%s"\s*(#.*)?$`,
		regexp.QuoteMeta(field), regexp.QuoteMeta(token(name))))
}

func lineAt(body []byte, offset int) []byte {
	start := bytes.LastIndexByte(body[:offset], '\n') + 1
	end := bytes.IndexByte(body[offset:], '\n')
	if end < 0 {
		return bytes.TrimRight(body[start:], "\r")
	}
	return bytes.TrimRight(body[start:offset+end], "\r")
}
