package hook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/pkg/errors"
)

// Source is a configured hook script, given inline or as a file.
type Source struct {
	Type   HookType
	Script string
	File   string
}

// Load registers every source with manager. Relative file paths resolve
// against baseDir, normally the directory of the config file.
func Load(manager HookManager, baseDir string, sources []Source) error {
	for _, src := range sources {
		content, err := src.content(baseDir)
		if err != nil {
			return err
		}
		if content == "" {
			continue
		}
		if err := manager.AddHook(Hook{Type: src.Type, Content: content}); err != nil {
			return fmt.Errorf("error adding hook %s: %w", src.Type, err)
		}
	}
	return nil
}

func (s Source) content(baseDir string) (string, error) {
	if s.Script != "" && s.File != "" {
		return "", errors.Wrapf(errors.ErrHookLoad, "%s: script and file are mutually exclusive", s.Type)
	}
	if s.File == "" {
		return s.Script, nil
	}

	path := s.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading hook file %s: %v: %w", path, err, errors.ErrHookLoad)
	}
	return string(data), nil
}
