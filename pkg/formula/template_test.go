package formula

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/rezkam/allyas/pkg/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVersion = "0.0.2"
	testURL     = "https://github.com/rezkam/allyas/archive/refs/tags/v0.0.2.tar.gz"
	testSHA256  = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
)

const minimalTemplate = `class Allyas < Formula
  desc "Personal shell aliases for macOS"
  url "{{tarballUrl}}"          # filled per release
  sha256 "{{sha256}}"
  version "{{version}}"

  def install
    etc.install "allyas.sh"
  end
end
`

func testDescriptor(t *testing.T) *release.Descriptor {
	t.Helper()
	d, err := release.NewDescriptor(testVersion, testURL, testSHA256)
	require.NoError(t, err)
	return d
}

func allyasMetadata() Metadata {
	return Metadata{
		Name:        "allyas",
		Desc:        "Personal shell aliases for macOS",
		Homepage:    "https://github.com/rezkam/allyas",
		License:     "MIT",
		InstallFile: "allyas.sh",
	}
}

func TestRender_FieldsMatchDescriptor(t *testing.T) {
	out, err := Render([]byte(minimalTemplate), testDescriptor(t))
	require.NoError(t, err)

	fields, err := ParseFields(out)
	require.NoError(t, err)
	assert.Equal(t, testVersion, fields.Version)
	assert.Equal(t, testURL, fields.URL)
	assert.Equal(t, testSHA256, fields.SHA256)
	assert.Equal(t, "Allyas", fields.Class)

	assert.NotContains(t, string(out), "{{")
}

func TestRender_OnlyPlaceholderSitesChange(t *testing.T) {
	out, err := Render([]byte(minimalTemplate), testDescriptor(t))
	require.NoError(t, err)

	want := strings.NewReplacer(
		"{{tarballUrl}}", testURL,
		"{{sha256}}", testSHA256,
		"{{version}}", testVersion,
	).Replace(minimalTemplate)
	assert.Equal(t, want, string(out))
	assert.Contains(t, string(out), `url "`+testURL+`"          # filled per release`)
}

func TestRender_Idempotent(t *testing.T) {
	tmpl := []byte(minimalTemplate)
	desc := testDescriptor(t)

	first, err := Render(tmpl, desc)
	require.NoError(t, err)
	second, err := Render(tmpl, desc)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	again, err := Render(first, desc)
	require.NoError(t, err, "rendering an already rendered manifest is a no-op")
	assert.Equal(t, first, again)
}

func TestRender_DoesNotMutateTemplate(t *testing.T) {
	tmpl := NewTemplate("t", []byte(minimalTemplate))
	_, err := tmpl.Render(testDescriptor(t))
	require.NoError(t, err)
	assert.Equal(t, minimalTemplate, string(tmpl.Body))
}

func TestRender_DescriptorErrors(t *testing.T) {
	_, err := Render([]byte(minimalTemplate), &release.Descriptor{Version: testVersion, TarballURL: testURL})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingField))
	assert.Contains(t, err.Error(), "sha256")

	_, err = Render([]byte(minimalTemplate), &release.Descriptor{Version: testVersion, TarballURL: testURL, SHA256: "deadbeef"})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidChecksum))
}

func TestTemplate_Check(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "valid",
			body: minimalTemplate,
		},
		{
			name:    "duplicate placeholder",
			body:    minimalTemplate + "# again {{version}}\n",
			wantErr: errors.ErrDuplicatePlaceholder,
		},
		{
			name:    "unknown placeholder",
			body:    minimalTemplate + "  revision \"{{revision}}\"\n",
			wantErr: errors.ErrUnknownPlaceholder,
		},
		{
			name:    "placeholder in wrong field",
			body:    strings.Replace(minimalTemplate, `url "{{tarballUrl}}"`, `url "{{sha256}}"`, 1),
			wantErr: errors.ErrMisplacedPlaceholder,
		},
		{
			name:    "placeholder outside any field",
			body:    strings.Replace(minimalTemplate, `version "{{version}}"`, `# version comes from {{version}}`, 1),
			wantErr: errors.ErrMisplacedPlaceholder,
		},
		{
			name:    "placeholder with surrounding text",
			body:    strings.Replace(minimalTemplate, `version "{{version}}"`, `version "v{{version}}"`, 1),
			wantErr: errors.ErrMisplacedPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTemplate("formula.rb", []byte(tt.body)).Check()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), "formula.rb:")
		})
	}
}

func TestRender_RejectsBrokenTemplates(t *testing.T) {
	body := minimalTemplate + "# again {{version}}\n"
	_, err := Render([]byte(body), testDescriptor(t))
	assert.True(t, stderrors.Is(err, errors.ErrDuplicatePlaceholder))
}

func TestRender_RejectsInterpolatingURL(t *testing.T) {
	desc := testDescriptor(t)
	desc.TarballURL += "#{`touch /tmp/x`}"

	out, err := Render([]byte(minimalTemplate), desc)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidURL))
	assert.Nil(t, out)
}

func TestRender_StrayDelimiter(t *testing.T) {
	body := minimalTemplate + "# stray {{ delimiter\n"
	_, err := Render([]byte(body), testDescriptor(t))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnresolvedPlaceholder))
}

func TestRender_PartialTemplate(t *testing.T) {
	body := strings.Replace(minimalTemplate, `version "{{version}}"`, `version "0.0.1"`, 1)
	tmpl := NewTemplate("partial", []byte(body))
	assert.Equal(t, []string{"version"}, tmpl.Missing())

	out, err := tmpl.Render(testDescriptor(t))
	require.NoError(t, err)
	fields, err := ParseFields(out)
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", fields.Version, "absent placeholders leave the fixed text alone")
	assert.Equal(t, testURL, fields.URL)
}

func TestPlaceholders_Sites(t *testing.T) {
	sites := NewTemplate("t", []byte(minimalTemplate)).Placeholders()
	require.Len(t, sites, 3)
	assert.Equal(t, Site{Name: "tarballUrl", Line: 3, Offset: bytes.Index([]byte(minimalTemplate), []byte("{{tarballUrl}}"))}, sites[0])
	assert.Equal(t, "sha256", sites[1].Name)
	assert.Equal(t, 5, sites[2].Line)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula-template.rb")
	require.NoError(t, os.WriteFile(path, []byte(minimalTemplate), 0644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Source)
	assert.Empty(t, tmpl.Missing())

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.rb"))
	assert.True(t, stderrors.Is(err, errors.ErrTemplateLoad))
}

func TestRepositoryTemplate(t *testing.T) {
	tmpl, err := LoadTemplate(filepath.Join("..", "..", "support", "formula-template.rb"))
	require.NoError(t, err)
	require.NoError(t, tmpl.Check())
	assert.Empty(t, tmpl.Missing())

	scaffolded, err := Scaffold(allyasMetadata())
	require.NoError(t, err)
	assert.Equal(t, string(scaffolded.Body), string(tmpl.Body), "support/formula-template.rb is out of date with the scaffold")

	out, err := tmpl.Render(testDescriptor(t))
	require.NoError(t, err)
	desc, err := ValidateResolved(out)
	require.NoError(t, err)
	assert.Equal(t, testDescriptor(t), desc)

	manifest := string(out)
	assert.Contains(t, manifest, `url "`+testURL+`"          # Auto-filled: Download URL for the release tarball`)
	assert.Contains(t, manifest, "      🎉 allyas has been installed!\n")
	assert.True(t, strings.HasPrefix(ParseCaveats(out), "🎉 allyas has been installed!\n"))
}

func TestValidateResolved(t *testing.T) {
	_, err := ValidateResolved([]byte(minimalTemplate))
	assert.True(t, stderrors.Is(err, errors.ErrUnresolvedPlaceholder))

	_, err = ValidateResolved([]byte("class Allyas < Formula\n  version \"0.0.2\"\nend\n"))
	assert.True(t, stderrors.Is(err, errors.ErrFieldNotFound))

	bad := strings.NewReplacer("{{tarballUrl}}", testURL, "{{sha256}}", "abc", "{{version}}", testVersion).Replace(minimalTemplate)
	_, err = ValidateResolved([]byte(bad))
	assert.True(t, stderrors.Is(err, errors.ErrInvalidChecksum))
}
