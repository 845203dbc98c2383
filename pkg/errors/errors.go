// Package errors defines the sentinel errors shared by the allyas release and
// install tooling, plus helpers for wrapping them with context.
//
// Callers compare against the sentinels with the standard library's errors.Is;
// every helper here wraps with %w so the chain stays intact.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrInvalidLogFormat  = fmt.Errorf("invalid log format")
	ErrHTTPTimeoutNeg    = fmt.Errorf("http_timeout cannot be negative")

	// Release descriptor errors.
	ErrMissingField    = fmt.Errorf("missing field")
	ErrInvalidVersion  = fmt.Errorf("invalid version")
	ErrInvalidURL      = fmt.Errorf("invalid tarball url")
	ErrInvalidChecksum = fmt.Errorf("invalid sha256 checksum")
	ErrInvalidTag      = fmt.Errorf("invalid release tag")

	// Template errors.
	ErrTemplateLoad          = fmt.Errorf("failed to load formula template")
	ErrUnknownPlaceholder    = fmt.Errorf("unknown placeholder")
	ErrDuplicatePlaceholder  = fmt.Errorf("placeholder appears more than once")
	ErrMisplacedPlaceholder  = fmt.Errorf("placeholder outside its field")
	ErrUnresolvedPlaceholder = fmt.Errorf("unresolved placeholder in manifest")
	ErrFieldNotFound         = fmt.Errorf("manifest field not found")

	// Download errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrFileHashMismatch = fmt.Errorf("file hash mismatch")
	ErrInvalidPath      = fmt.Errorf("invalid path")

	// Install errors.
	ErrFileNotFound       = fmt.Errorf("file not found")
	ErrVerificationFailed = fmt.Errorf("verification failed")
	ErrNotInstalled       = fmt.Errorf("package is not installed")

	// Publish errors.
	ErrPublish = fmt.Errorf("failed to publish formula")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrMissingFieldWithName names the empty descriptor field.
func ErrMissingFieldWithName(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidLogFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidLogFormat, format)
}
