package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogDirectory returns the default directory for msibuild log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\msibuild\logs
//   - Unix: ~/.config/msibuild/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "msibuild-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "msibuild", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "msibuild-logs")
		}
		return filepath.Join(homeDir, ".config", "msibuild", "logs")
	}
	return filepath.Join(configDir, "msibuild", "logs")
}

// ResolveLogFile turns a configured log file name into a path. Bare file
// names land in LogDirectory; anything with a directory part is used as is.
func ResolveLogFile(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name
	}
	return filepath.Join(LogDirectory(), name)
}
