package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Environment variables read by EnvironmentFromEnv.
const (
	EnvDatabaseDir = "OPENRAVE_DATABASE"
	EnvHomeDir     = "OPENRAVE_HOME"
	EnvDataDirs    = "OPENRAVE_DATA"
)

// Environment describes where a simulation runtime keeps its files. It is passed explicitly to the
// runtime instead of being communicated through process environment variables.
type Environment struct {
	DatabaseDir    string   `json:"database_dir"`
	HomeDir        string   `json:"home_dir"`
	DataDirs       []string `json:"data_dirs"`
	LoadAllPlugins bool     `json:"load_all_plugins"`
}

// EnvironmentFromEnv reads the OPENRAVE_* variables once. The process environment is not modified.
func EnvironmentFromEnv() Environment {
	var env Environment
	env.DatabaseDir = os.Getenv(EnvDatabaseDir)
	env.HomeDir = os.Getenv(EnvHomeDir)
	if data := os.Getenv(EnvDataDirs); data != "" {
		env.DataDirs = filepath.SplitList(data)
	}
	env.LoadAllPlugins = true
	return env
}

// Merge returns env with every empty field filled in from other.
func (env Environment) Merge(other Environment) Environment {
	if env.DatabaseDir == "" {
		env.DatabaseDir = other.DatabaseDir
	}
	if env.HomeDir == "" {
		env.HomeDir = other.HomeDir
	}
	if len(env.DataDirs) == 0 {
		env.DataDirs = other.DataDirs
	}
	env.LoadAllPlugins = env.LoadAllPlugins || other.LoadAllPlugins
	return env
}

// Validate ensures all parts of the environment are valid.
func (env Environment) Validate(path string) error {
	for idx, dir := range env.DataDirs {
		if dir == "" {
			return goutils.NewConfigValidationError(path, errors.Errorf("data_dirs[%d] is empty", idx))
		}
	}
	if env.HomeDir != "" && !filepath.IsAbs(env.HomeDir) {
		return goutils.NewConfigValidationError(path, errors.Errorf("home_dir %q must be absolute", env.HomeDir))
	}
	return nil
}
