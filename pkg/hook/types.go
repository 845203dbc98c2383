package hook

import "context"

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreInstall  HookType = "pre-install"
	PostInstall HookType = "post-install"
	Test        HookType = "test"
)

// Types lists the supported hook types in execution order.
var Types = []HookType{PreInstall, PostInstall, Test}

// Valid reports whether t is one of the supported hook types.
func (t HookType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	PackageName    string
	PackageVersion string
	// SourcePath is the file inside the extracted tarball.
	SourcePath string
	// InstallPath is the installed file under <prefix>/etc.
	InstallPath string
	// Vars are extra script globals such as prefix and etcDir.
	Vars map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(ctx context.Context, hookType HookType, hc HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
