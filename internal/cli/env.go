package cli

import (
	"fmt"

	"github.com/rescale/msibuild/internal/config"
	"github.com/rescale/msibuild/internal/logging"
	"github.com/rescale/msibuild/internal/pathutil"
	"github.com/rescale/msibuild/internal/versioning"
)

// env is what every command needs: the resolved working directory and the
// build configuration found there.
type env struct {
	dir        string
	configPath string
	cfg        *config.BuildConfig
}

// configPathFor returns --config, or msibuild.ini inside dir.
func configPathFor(dir string) string {
	if cfgFile != "" {
		return pathutil.ResolveIn(dir, cfgFile)
	}
	return config.DefaultPath(dir)
}

// resolveDir returns the absolute working directory from --dir.
func resolveDir() (string, error) {
	dir, err := pathutil.ResolveAbsolutePath(workDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return dir, nil
}

// loadEnv resolves the working directory and loads and validates the config.
func loadEnv() (*env, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	path := configPathFor(dir)
	cfg, err := config.LoadBuildConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	// Config may name a log file when --log-file did not.
	if logFile == "" && cfg.Logging.LogFile != "" {
		old := GetLogger()
		logger = logging.New(logging.Options{
			Out:     old.Output(),
			LogFile: config.ResolveLogFile(cfg.Logging.LogFile),
		})
		_ = old.Close()
	}

	return &env{dir: dir, configPath: path, cfg: cfg}, nil
}

// store opens the version slots named by the config.
func (e *env) store() *versioning.Store {
	return versioning.NewStore(e.dir, versioning.Options{
		NewFile:     e.cfg.Versions.NewFile,
		CurrentFile: e.cfg.Versions.CurrentFile,
	})
}
