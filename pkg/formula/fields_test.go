package formula

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields_Scaffolded(t *testing.T) {
	tmpl, err := Scaffold(allyasMetadata())
	require.NoError(t, err)

	out, err := tmpl.Render(testDescriptor(t))
	require.NoError(t, err)

	fields, err := ParseFields(out)
	require.NoError(t, err)
	assert.Equal(t, &Fields{
		Class:    "Allyas",
		Desc:     "Personal shell aliases for macOS",
		Homepage: "https://github.com/rezkam/allyas",
		URL:      testURL,
		SHA256:   testSHA256,
		Version:  testVersion,
		License:  "MIT",
	}, fields)
}

func TestParseFields_FirstOccurrenceWins(t *testing.T) {
	manifest := `class Allyas < Formula
  url "https://example.com/a.tar.gz"
  sha256 "` + testSHA256 + `"
  version "1.0.0"

  resource "extra" do
    url "https://example.com/b.tar.gz"
  end
end
`
	fields, err := ParseFields([]byte(manifest))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.tar.gz", fields.URL)
}

func TestParseFields_Missing(t *testing.T) {
	_, err := ParseFields([]byte("class Allyas < Formula\n  url \"https://example.com\"\nend\n"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFieldNotFound))
	assert.Contains(t, err.Error(), "sha256")
}

func TestParseCaveats(t *testing.T) {
	tmpl, err := Scaffold(allyasMetadata())
	require.NoError(t, err)

	caveats := ParseCaveats(tmpl.Body)
	require.NotEmpty(t, caveats)
	assert.True(t, strings.HasPrefix(caveats, "🎉 allyas has been installed!\n"), "caveats are dedented: %q", caveats[:40])
	assert.Contains(t, caveats, "\n  [ -f $(brew --prefix)/etc/allyas.sh ] && . $(brew --prefix)/etc/allyas.sh\n")
	assert.Contains(t, caveats, "brew update && brew upgrade allyas\n")
	assert.NotContains(t, caveats, "EOS")
}

func TestParseCaveats_None(t *testing.T) {
	assert.Empty(t, ParseCaveats([]byte(minimalTemplate)))
	assert.Empty(t, ParseCaveats([]byte("class A < Formula\n  def caveats\n    <<~EOS\n      unterminated\n")))
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"allyas":        "Allyas",
		"shell-aliases": "ShellAliases",
		"foo_bar.baz":   "FooBarBaz",
		"node@20":       "Node20",
	}
	for in, want := range tests {
		assert.Equal(t, want, ClassName(in), in)
	}
}

func TestScaffold(t *testing.T) {
	tmpl, err := Scaffold(allyasMetadata())
	require.NoError(t, err)

	require.NoError(t, tmpl.Check())
	assert.Empty(t, tmpl.Missing())
	assert.Equal(t, "Formula/allyas.rb.tmpl", tmpl.Source)
	body := string(tmpl.Body)
	assert.Contains(t, body, "class Allyas < Formula\n")
	assert.Contains(t, body, `etc.install "allyas.sh"`)
	assert.Contains(t, body, `assert_match "allyas", (etc/"allyas.sh").read`)
	for _, p := range []string{"{{version}}", "{{tarballUrl}}", "{{sha256}}"} {
		assert.Equal(t, 1, strings.Count(body, p), p)
	}
}

func TestScaffold_InvalidMetadata(t *testing.T) {
	meta := allyasMetadata()
	meta.Desc = ""
	_, err := Scaffold(meta)
	assert.True(t, stderrors.Is(err, errors.ErrMissingField))

	meta = allyasMetadata()
	meta.Desc = `say "hi"`
	_, err = Scaffold(meta)
	assert.True(t, stderrors.Is(err, errors.ErrConfigValidation))

	meta = allyasMetadata()
	meta.InstallFile = "etc/allyas.sh"
	_, err = Scaffold(meta)
	assert.True(t, stderrors.Is(err, errors.ErrConfigValidation))
}

func TestMetadata_TapPath(t *testing.T) {
	meta := allyasMetadata()
	assert.Equal(t, "Formula/allyas.rb", meta.TapPath())
	meta.FormulaDir = "Casks"
	assert.Equal(t, "Casks/allyas.rb", meta.TapPath())
}
