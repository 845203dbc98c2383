package installer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rezkam/allyas/pkg/errors"
)

// IntegrityCheck inspects an installed file.
type IntegrityCheck interface {
	Verify(path string) error
}

// CompoundCheck runs its inner checks in order and stops at the first failure.
type CompoundCheck struct {
	inners []IntegrityCheck
}

func NewCompoundCheck(inners ...IntegrityCheck) *CompoundCheck {
	return &CompoundCheck{inners: inners}
}

func (c *CompoundCheck) Verify(path string) error {
	for _, inner := range c.inners {
		if err := inner.Verify(path); err != nil {
			return err
		}
	}
	return nil
}

// ExistsCheck requires path to be a regular file.
type ExistsCheck struct{}

func (ExistsCheck) Verify(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s does not exist: %w", path, errors.ErrVerificationFailed)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file: %w", path, errors.ErrVerificationFailed)
	}
	return nil
}

// ContainsCheck requires the file content to include Needle.
type ContainsCheck struct {
	Needle string
}

func (c ContainsCheck) Verify(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %v: %w", path, err, errors.ErrVerificationFailed)
	}
	if !bytes.Contains(content, []byte(c.Needle)) {
		return fmt.Errorf("%s does not mention %q: %w", path, c.Needle, errors.ErrVerificationFailed)
	}
	return nil
}

// NewVerifier returns the standard post-install check for a package: the
// file exists and its content names the package.
func NewVerifier(packageName string) *CompoundCheck {
	return NewCompoundCheck(ExistsCheck{}, ContainsCheck{Needle: packageName})
}
