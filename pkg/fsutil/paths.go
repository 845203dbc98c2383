package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the name of the application used in paths
	AppName = "allyas"

	// PrefixEnv overrides the detected Homebrew prefix.
	PrefixEnv = "HOMEBREW_PREFIX"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/allyas/
// On macOS: ~/Library/Caches/allyas/
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetTarballCacheDir returns the directory downloaded release tarballs are kept in.
// Format: <cache_dir>/tarballs/
func GetTarballCacheDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "tarballs"), nil
}

// GetConfigDir returns the platform-specific config directory for the application.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// DefaultPrefix returns the Homebrew prefix: $HOMEBREW_PREFIX when set,
// otherwise the platform default.
func DefaultPrefix() string {
	if p := os.Getenv(PrefixEnv); p != "" {
		return p
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "/opt/homebrew"
	}
	if runtime.GOOS == "linux" {
		return "/home/linuxbrew/.linuxbrew"
	}
	return "/usr/local"
}

// EtcDir returns the shared configuration directory under prefix.
func EtcDir(prefix string) string {
	return filepath.Join(prefix, "etc")
}
