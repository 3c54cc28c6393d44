// Package config provides configuration management for msibuild.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/rescale/msibuild/internal/constants"
)

// BuildConfig is the per-project build configuration.
//
// Config file location: msibuild.ini in the working directory, unless
// --config names another file.
//
// INI format:
//
//	[toolchain]
//	compiler = candle
//	linker = light
//	ui_extension = WixUIExtension
//	version_variable = Version
//	tool_timeout = 10m
//	download_url = https://wixtoolset.org/releases/
//
//	[package]
//	source = Product.wxs
//	intermediate = Product.wixobj
//	output = Product.msi
//
//	[versions]
//	new_file = version-new.txt
//	current_file = version-current.txt
//
//	[logging]
//	log_file =
type BuildConfig struct {
	Toolchain ToolchainConfig
	Package   PackageConfig
	Versions  VersionsConfig
	Logging   LoggingConfig
}

// ToolchainConfig names the WiX tools and how they are run.
type ToolchainConfig struct {
	// Compiler and Linker are bare names searched on PATH, or paths.
	Compiler string
	Linker   string

	// UIExtension is passed to the linker with -ext. Empty omits it.
	UIExtension string

	// VersionVariable is the preprocessor variable receiving the version.
	VersionVariable string

	// ToolTimeout bounds each tool run. Zero disables the limit.
	ToolTimeout time.Duration

	// DownloadURL is shown when the toolchain is missing.
	DownloadURL string
}

// PackageConfig names the build inputs and outputs, relative to the
// working directory.
type PackageConfig struct {
	Source       string
	Intermediate string
	Output       string
}

// VersionsConfig names the two version slot files.
type VersionsConfig struct {
	NewFile     string
	CurrentFile string
}

// LoggingConfig controls the optional log file.
type LoggingConfig struct {
	// LogFile enables rolling file logs when set.
	LogFile string
}

// Validation errors
var (
	ErrMissingCompiler     = errors.New("toolchain.compiler is required")
	ErrMissingLinker       = errors.New("toolchain.linker is required")
	ErrMissingVariable     = errors.New("toolchain.version_variable is required")
	ErrInvalidTimeout      = errors.New("toolchain.tool_timeout must not be negative")
	ErrMissingSource       = errors.New("package.source is required")
	ErrMissingIntermediate = errors.New("package.intermediate is required")
	ErrMissingOutput       = errors.New("package.output is required")
	ErrSameArtifact        = errors.New("package.intermediate and package.output must differ")
	ErrMissingVersionFile  = errors.New("versions.new_file and versions.current_file are required")
	ErrSameVersionFile     = errors.New("versions.new_file and versions.current_file must differ")

	// ErrUnknownKey is returned by Get and Set for keys outside ValidKeys.
	ErrUnknownKey = errors.New("unknown config key")
)

// DefaultPath returns the config file path for the working directory dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, constants.ConfigFileName)
}

// NewBuildConfig creates a BuildConfig with default values.
func NewBuildConfig() *BuildConfig {
	return &BuildConfig{
		Toolchain: ToolchainConfig{
			Compiler:        constants.CompilerTool,
			Linker:          constants.LinkerTool,
			UIExtension:     constants.UIExtension,
			VersionVariable: constants.VersionVariable,
			ToolTimeout:     constants.DefaultToolTimeout,
			DownloadURL:     constants.ToolchainDownloadURL,
		},
		Package: PackageConfig{
			Source:       constants.SourceFile,
			Intermediate: constants.IntermediateFile,
			Output:       constants.PackageFile,
		},
		Versions: VersionsConfig{
			NewFile:     constants.NewVersionFile,
			CurrentFile: constants.CurrentVersionFile,
		},
	}
}

// LoadBuildConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	cfg := NewBuildConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load build config: %w", err)
	}

	for _, key := range ValidKeys() {
		section, name := splitKey(key)
		k, err := iniFile.Section(section).GetKey(name)
		if err != nil {
			continue
		}
		if err := cfg.Set(key, k.String()); err != nil {
			return nil, fmt.Errorf("failed to load build config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// SaveBuildConfig saves configuration to an INI file.
// Creates parent directories if they don't exist.
func SaveBuildConfig(cfg *BuildConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()
	for _, key := range ValidKeys() {
		section, name := splitKey(key)
		value, _ := cfg.Get(key)
		iniFile.Section(section).Key(name).SetValue(value)
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration can drive a build.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *BuildConfig) Validate() error {
	switch {
	case strings.TrimSpace(cfg.Toolchain.Compiler) == "":
		return ErrMissingCompiler
	case strings.TrimSpace(cfg.Toolchain.Linker) == "":
		return ErrMissingLinker
	case strings.TrimSpace(cfg.Toolchain.VersionVariable) == "":
		return ErrMissingVariable
	case cfg.Toolchain.ToolTimeout < 0:
		return ErrInvalidTimeout
	case strings.TrimSpace(cfg.Package.Source) == "":
		return ErrMissingSource
	case strings.TrimSpace(cfg.Package.Intermediate) == "":
		return ErrMissingIntermediate
	case strings.TrimSpace(cfg.Package.Output) == "":
		return ErrMissingOutput
	case filepath.Clean(cfg.Package.Intermediate) == filepath.Clean(cfg.Package.Output):
		return ErrSameArtifact
	case strings.TrimSpace(cfg.Versions.NewFile) == "" || strings.TrimSpace(cfg.Versions.CurrentFile) == "":
		return ErrMissingVersionFile
	case filepath.Clean(cfg.Versions.NewFile) == filepath.Clean(cfg.Versions.CurrentFile):
		return ErrSameVersionFile
	}
	return nil
}

// field binds a section.key name to a BuildConfig string field.
type field struct {
	get func(*BuildConfig) string
	set func(*BuildConfig, string) error
}

func stringField(ptr func(*BuildConfig) *string) field {
	return field{
		get: func(c *BuildConfig) string { return *ptr(c) },
		set: func(c *BuildConfig, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

var fields = map[string]field{
	"toolchain.compiler":         stringField(func(c *BuildConfig) *string { return &c.Toolchain.Compiler }),
	"toolchain.linker":           stringField(func(c *BuildConfig) *string { return &c.Toolchain.Linker }),
	"toolchain.ui_extension":     stringField(func(c *BuildConfig) *string { return &c.Toolchain.UIExtension }),
	"toolchain.version_variable": stringField(func(c *BuildConfig) *string { return &c.Toolchain.VersionVariable }),
	"toolchain.download_url":     stringField(func(c *BuildConfig) *string { return &c.Toolchain.DownloadURL }),
	"toolchain.tool_timeout": {
		get: func(c *BuildConfig) string { return c.Toolchain.ToolTimeout.String() },
		set: func(c *BuildConfig, v string) error {
			v = strings.TrimSpace(v)
			if v == "" || v == "0" {
				c.Toolchain.ToolTimeout = 0
				return nil
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid tool_timeout %q: %w", v, err)
			}
			if d < 0 {
				return ErrInvalidTimeout
			}
			c.Toolchain.ToolTimeout = d
			return nil
		},
	},
	"package.source":        stringField(func(c *BuildConfig) *string { return &c.Package.Source }),
	"package.intermediate":  stringField(func(c *BuildConfig) *string { return &c.Package.Intermediate }),
	"package.output":        stringField(func(c *BuildConfig) *string { return &c.Package.Output }),
	"versions.new_file":     stringField(func(c *BuildConfig) *string { return &c.Versions.NewFile }),
	"versions.current_file": stringField(func(c *BuildConfig) *string { return &c.Versions.CurrentFile }),
	"logging.log_file":      stringField(func(c *BuildConfig) *string { return &c.Logging.LogFile }),
}

// ValidKeys lists every settable key in section.key form, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key as it would be written to the file.
func (cfg *BuildConfig) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(cfg), nil
}

// Set assigns key from its textual form.
func (cfg *BuildConfig) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return f.set(cfg, strings.TrimSpace(value))
}

func splitKey(key string) (section, name string) {
	section, name, _ = strings.Cut(key, ".")
	return section, name
}
