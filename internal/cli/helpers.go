package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/archive"
	"github.com/rezkam/allyas/pkg/config"
	"github.com/rezkam/allyas/pkg/download"
	"github.com/rezkam/allyas/pkg/formula"
	"github.com/rezkam/allyas/pkg/fsutil"
	"github.com/rezkam/allyas/pkg/hook"
	"github.com/rezkam/allyas/pkg/installer"
	"github.com/rezkam/allyas/pkg/orchestrator"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// loadConfig loads the configuration and applies the global logging flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if LogFormat != nil && *LogFormat != "" {
		cfg.Settings.LogFormat = *LogFormat
	}
	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.OutputFormat(cfg.Settings.LogFormat))

	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path fails later with ErrEmptyConfigPath.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// configDir is where relative hook files are resolved from.
func configDir() string {
	p := getConfigPath()
	if p == "" {
		return "."
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Dir(p)
	}
	return filepath.Dir(abs)
}

// loadTemplate loads the formula template from override or the configured path.
func loadTemplate(cfg *config.Config, override string) (*formula.Template, error) {
	path := override
	if path == "" {
		path = cfg.Template
	}
	return formula.LoadTemplate(path)
}

func loadDownloadManager(cfg *config.Config) *download.ManagerImpl {
	return download.NewManager(cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent)
}

func loadHookManager(cfg *config.Config) (*hook.DefaultHookManager, error) {
	manager := hook.NewHookManager()
	if err := hook.Load(manager, configDir(), cfg.HookSources()); err != nil {
		return nil, err
	}
	return manager, nil
}

func resolveCacheDir(cfg *config.Config, flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	return cfg.GetCacheDir()
}

func resolvePrefix(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.GetPrefix()
}

// newInstallOrchestrator wires the install side of the pipeline for prefix.
func newInstallOrchestrator(cfg *config.Config, prefix string) (*orchestrator.Orchestrator, error) {
	scripts, err := loadHookManager(cfg)
	if err != nil {
		return nil, err
	}
	orch := orchestrator.New(
		loadDownloadManager(cfg),
		archive.NewManager(),
		installer.New(fsutil.EtcDir(prefix)),
		installer.NewVerifier(cfg.Package.Name),
		nil,
		scripts,
		eventHooks(),
	)
	orch.HookVars = map[string]interface{}{
		"prefix": prefix,
		"etcDir": fsutil.EtcDir(prefix),
	}
	return orch, nil
}

// eventHooks logs orchestrator progress.
func eventHooks() orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		logger.Debug(e.Phase, logger.Fields{"package": e.ID, "detail": e.Msg})
	}}
}

// progressOutput is where download progress bars are drawn; nil disables them.
func progressOutput() io.Writer {
	if info, err := os.Stderr.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return os.Stderr
	}
	return nil
}
