package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewBuildConfig(t *testing.T) {
	cfg := NewBuildConfig()

	if cfg.Toolchain.Compiler != "candle" {
		t.Errorf("expected default compiler candle, got %s", cfg.Toolchain.Compiler)
	}
	if cfg.Toolchain.Linker != "light" {
		t.Errorf("expected default linker light, got %s", cfg.Toolchain.Linker)
	}
	if cfg.Toolchain.ToolTimeout != 10*time.Minute {
		t.Errorf("expected default timeout 10m, got %s", cfg.Toolchain.ToolTimeout)
	}
	if cfg.Package.Output != "Product.msi" {
		t.Errorf("expected default output Product.msi, got %s", cfg.Package.Output)
	}
	if cfg.Versions.NewFile != "version-new.txt" || cfg.Versions.CurrentFile != "version-current.txt" {
		t.Errorf("unexpected version files: %+v", cfg.Versions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadBuildConfig_MissingFile(t *testing.T) {
	cfg, err := LoadBuildConfig(filepath.Join(t.TempDir(), "msibuild.ini"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Toolchain.Compiler != "candle" {
		t.Errorf("expected defaults, got compiler %s", cfg.Toolchain.Compiler)
	}
}

func TestSaveAndLoadBuildConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "msibuild.ini")

	cfg := NewBuildConfig()
	cfg.Toolchain.Compiler = `C:\WiX\bin\candle.exe`
	cfg.Toolchain.UIExtension = ""
	cfg.Toolchain.ToolTimeout = 90 * time.Second
	cfg.Package.Source = "Installer.wxs"
	cfg.Versions.NewFile = "next.txt"
	cfg.Logging.LogFile = "build.log"

	if err := SaveBuildConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveBuildConfig failed: %v", err)
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadBuildConfig(configPath)
	if err != nil {
		t.Fatalf("LoadBuildConfig failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}

func TestLoadBuildConfig_PartialFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "msibuild.ini")
	content := "[toolchain]\nlinker = light.exe\ntool_timeout = 0\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBuildConfig(configPath)
	if err != nil {
		t.Fatalf("LoadBuildConfig failed: %v", err)
	}
	if cfg.Toolchain.Linker != "light.exe" {
		t.Errorf("expected linker light.exe, got %s", cfg.Toolchain.Linker)
	}
	if cfg.Toolchain.ToolTimeout != 0 {
		t.Errorf("expected timeout disabled, got %s", cfg.Toolchain.ToolTimeout)
	}
	if cfg.Toolchain.Compiler != "candle" {
		t.Errorf("unset keys should keep defaults, got compiler %s", cfg.Toolchain.Compiler)
	}
}

func TestLoadBuildConfig_InvalidTimeout(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "msibuild.ini")
	if err := os.WriteFile(configPath, []byte("[toolchain]\ntool_timeout = soon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBuildConfig(configPath); err == nil {
		t.Error("expected error for invalid tool_timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*BuildConfig)
		want   error
	}{
		{"missing compiler", func(c *BuildConfig) { c.Toolchain.Compiler = " " }, ErrMissingCompiler},
		{"missing linker", func(c *BuildConfig) { c.Toolchain.Linker = "" }, ErrMissingLinker},
		{"missing variable", func(c *BuildConfig) { c.Toolchain.VersionVariable = "" }, ErrMissingVariable},
		{"negative timeout", func(c *BuildConfig) { c.Toolchain.ToolTimeout = -time.Second }, ErrInvalidTimeout},
		{"missing source", func(c *BuildConfig) { c.Package.Source = "" }, ErrMissingSource},
		{"same artifact", func(c *BuildConfig) { c.Package.Intermediate = "Product.msi" }, ErrSameArtifact},
		{"same version file", func(c *BuildConfig) { c.Versions.CurrentFile = "./version-new.txt" }, ErrSameVersionFile},
		{"empty ui extension is fine", func(c *BuildConfig) { c.Toolchain.UIExtension = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewBuildConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := NewBuildConfig()

	if err := cfg.Set("package.output", " Setup.msi "); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := cfg.Get("package.output"); got != "Setup.msi" {
		t.Errorf("expected Setup.msi, got %q", got)
	}

	if err := cfg.Set("toolchain.tool_timeout", "30s"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := cfg.Get("toolchain.tool_timeout"); got != "30s" {
		t.Errorf("expected 30s, got %q", got)
	}

	if err := cfg.Set("toolchain.tool_timeout", "-5s"); !errors.Is(err, ErrInvalidTimeout) {
		t.Errorf("expected ErrInvalidTimeout, got %v", err)
	}

	err := cfg.Set("package.colour", "blue")
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	if !strings.Contains(err.Error(), "package.output") {
		t.Errorf("error should list valid keys, got %v", err)
	}
	if _, err := cfg.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey from Get, got %v", err)
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	if len(keys) != 12 {
		t.Errorf("expected 12 keys, got %d: %v", len(keys), keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("keys not sorted: %v", keys)
			break
		}
	}
	for _, k := range keys {
		if !strings.Contains(k, ".") {
			t.Errorf("key %q is not in section.key form", k)
		}
	}
}

func TestResolveLogFile(t *testing.T) {
	if got := ResolveLogFile(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := ResolveLogFile("build.log"); got != filepath.Join(LogDirectory(), "build.log") {
		t.Errorf("bare name should land in log directory, got %q", got)
	}
	rel := filepath.Join("logs", "build.log")
	if got := ResolveLogFile(rel); got != rel {
		t.Errorf("path with directory should be kept, got %q", got)
	}
}

func TestDefaultPath(t *testing.T) {
	if got := DefaultPath("/work"); got != filepath.Join("/work", "msibuild.ini") {
		t.Errorf("unexpected default path %q", got)
	}
}
