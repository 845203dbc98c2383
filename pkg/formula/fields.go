package formula

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/rezkam/allyas/pkg/errors"
)

// Fields are the string-valued stanzas of a formula.
type Fields struct {
	Class    string `json:"class" yaml:"class"`
	Desc     string `json:"desc" yaml:"desc"`
	Homepage string `json:"homepage" yaml:"homepage"`
	URL      string `json:"url" yaml:"url"`
	SHA256   string `json:"sha256" yaml:"sha256"`
	Version  string `json:"version" yaml:"version"`
	License  string `json:"license" yaml:"license"`
}

var (
	stanzaPattern = regexp.MustCompile(`^\s*(desc|homepage|url|sha256|version|license)\s+"([^"]*)"\s*(#.*)?$`)
	classPattern  = regexp.MustCompile(`^\s*class\s+([A-Z][A-Za-z0-9]*)\s*<\s*Formula\s*$`)
	heredocStart  = regexp.MustCompile(`<<~(\w+)\s*$`)
)

// ParseFields reads the top-level stanzas of a formula. Only the first
// occurrence of each stanza counts. url, sha256 and version are required.
func ParseFields(manifest []byte) (*Fields, error) {
	f := &Fields{}
	set := map[string]*string{
		"desc":     &f.Desc,
		"homepage": &f.Homepage,
		"url":      &f.URL,
		"sha256":   &f.SHA256,
		"version":  &f.Version,
		"license":  &f.License,
	}
	found := map[string]bool{}

	scanner := bufio.NewScanner(bytes.NewReader(manifest))
	for scanner.Scan() {
		line := scanner.Text()
		if m := classPattern.FindStringSubmatch(line); m != nil && f.Class == "" {
			f.Class = m[1]
			continue
		}
		m := stanzaPattern.FindStringSubmatch(line)
		if m == nil || found[m[1]] {
			continue
		}
		found[m[1]] = true
		*set[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan manifest")
	}

	for _, required := range []string{"url", "sha256", "version"} {
		if !found[required] {
			return nil, errors.Wrapf(errors.ErrFieldNotFound, "%s", required)
		}
	}
	return f, nil
}

// ParseCaveats returns the body of the first <<~ heredoc inside the caveats
// method, with the common leading indentation removed the way Ruby's
// squiggly heredoc does. It returns "" when the formula has no caveats.
func ParseCaveats(manifest []byte) string {
	lines := strings.Split(string(manifest), "\n")
	inCaveats := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "def caveats" {
			inCaveats = true
			continue
		}
		if !inCaveats {
			continue
		}
		if trimmed == "end" {
			return ""
		}
		m := heredocStart.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var body []string
		for _, l := range lines[i+1:] {
			if strings.TrimSpace(l) == m[1] {
				return dedent(body)
			}
			body = append(body, l)
		}
		return ""
	}
	return ""
}

func dedent(lines []string) string {
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent < 0 {
		indent = 0
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= indent {
			out[i] = l[indent:]
		} else {
			out[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(out, "\n") + "\n"
}

// ClassName converts a package name to the formula class name Homebrew
// expects: allyas -> Allyas, shell-aliases -> ShellAliases.
func ClassName(pkg string) string {
	var b strings.Builder
	upper := true
	for _, r := range pkg {
		if r == '-' || r == '_' || r == '.' || r == '@' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
