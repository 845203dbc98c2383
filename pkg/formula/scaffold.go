package formula

import (
	"bytes"
	_ "embed"
	"path"
	"strings"
	"text/template"

	"github.com/rezkam/allyas/pkg/errors"
)

//go:embed templates/formula.rb.tmpl
var scaffoldSource string

// Square-bracket delimiters keep text/template away from the {{...}} placeholders.
var scaffoldTemplate = template.Must(template.New("formula").Delims("[[", "]]").Parse(scaffoldSource))

// Metadata describes the package a template is scaffolded for.
type Metadata struct {
	Name        string
	Desc        string
	Homepage    string
	License     string
	InstallFile string
	FormulaDir  string
}

// Class returns the Ruby class name for the package.
func (m Metadata) Class() string {
	return ClassName(m.Name)
}

// TapPath is the formula's path inside the tap repository.
func (m Metadata) TapPath() string {
	dir := m.FormulaDir
	if dir == "" {
		dir = "Formula"
	}
	return path.Join(dir, m.Name+".rb")
}

// Validate rejects metadata that would produce broken Ruby.
func (m Metadata) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", m.Name},
		{"desc", m.Desc},
		{"homepage", m.Homepage},
		{"license", m.License},
		{"install_file", m.InstallFile},
	} {
		if strings.TrimSpace(f.value) == "" {
			return errors.ErrMissingFieldWithName(f.name)
		}
		if strings.ContainsAny(f.value, "\"\\\n") || strings.Contains(f.value, "{{") || strings.Contains(f.value, "#{") {
			return errors.Wrapf(errors.ErrConfigValidation, "%s contains characters that cannot be placed in a formula string", f.name)
		}
	}
	if strings.ContainsAny(m.InstallFile, "/\\") {
		return errors.Wrapf(errors.ErrConfigValidation, "install_file %q must be a bare file name", m.InstallFile)
	}
	return nil
}

// Scaffold produces a fresh formula template for the package. The result
// carries each placeholder exactly once and passes Template.Check.
func Scaffold(meta Metadata) (*Template, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := scaffoldTemplate.Execute(&buf, meta); err != nil {
		return nil, errors.Wrap(err, "failed to scaffold formula template")
	}
	return NewTemplate(meta.TapPath()+".tmpl", buf.Bytes()), nil
}
