package installer

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCheck struct {
	calls int
	err   error
}

func (c *countingCheck) Verify(string) error {
	c.calls++
	return c.err
}

func TestVerifier(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.sh")
	bad := filepath.Join(dir, "bad.sh")
	require.NoError(t, os.WriteFile(good, []byte(aliases), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("alias ll='ls -la'\n"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "installed", path: good},
		{name: "absent", path: filepath.Join(dir, "missing.sh"), wantErr: true},
		{name: "directory", path: dir, wantErr: true},
		{name: "lacks package name", path: bad, wantErr: true},
	}

	v := NewVerifier("allyas")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrVerificationFailed), "got %v", err)
		})
	}
}

func TestCompoundCheck_StopsAtFirstFailure(t *testing.T) {
	boom := stderrors.New("boom")
	first := &countingCheck{err: boom}
	second := &countingCheck{}

	err := NewCompoundCheck(first, second).Verify("x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)

	assert.NoError(t, NewCompoundCheck().Verify("x"))
}
