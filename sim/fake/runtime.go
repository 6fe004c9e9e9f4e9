// Package fake implements an in-process stand-in for the simulator. It loads scene files, builds
// kinematic trees in their zero configuration, runs synthetic cameras and an ideal controller.
// It does no physics and no rendering.
package fake

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
)

// ErrDestroyed is returned by a runtime after Destroy.
var ErrDestroyed = errors.New("runtime destroyed")

// Runtime owns every environment it creates.
type Runtime struct {
	cfg     config.Environment
	homeDir string
	clk     clock.Clock
	logger  logging.Logger

	mu        sync.Mutex
	envs      []*Environment
	destroyed bool
}

var _ sim.Runtime = (*Runtime)(nil)

// NewRuntime prepares the home and database directories named by cfg. An empty home directory
// defaults to ~/.openrave and an empty database directory to the home directory. A nil clock
// means the wall clock.
func NewRuntime(cfg config.Environment, clk clock.Clock, logger logging.Logger) (*Runtime, error) {
	if err := cfg.Validate("environment"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	homeDir := cfg.HomeDir
	if homeDir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine default home directory")
		}
		homeDir = filepath.Join(userHome, ".openrave")
	}
	homeDir, err := filepath.Abs(homeDir)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDir == "" {
		cfg.DatabaseDir = homeDir
	}
	for _, dir := range []string{homeDir, cfg.DatabaseDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrapf(err, "cannot create %q", dir)
		}
	}
	cfg.HomeDir = homeDir

	logger.Debugw("runtime initialized", "home", homeDir, "database", cfg.DatabaseDir, "data", cfg.DataDirs)
	return &Runtime{cfg: cfg, homeDir: homeDir, clk: clk, logger: logger}, nil
}

// NewEnvironment creates an empty environment whose simulation is running.
func (rt *Runtime) NewEnvironment(ctx context.Context) (sim.Environment, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.destroyed {
		return nil, ErrDestroyed
	}
	env := newEnvironment(rt.cfg.DataDirs, rt.clk, rt.logger.Sublogger("env"))
	rt.envs = append(rt.envs, env)
	return env, nil
}

// HomeDirectory returns the absolute home directory.
func (rt *Runtime) HomeDirectory() string {
	return rt.homeDir
}

// Environment returns the resolved configuration.
func (rt *Runtime) Environment() config.Environment {
	return rt.cfg
}

// Destroy closes every environment. Later calls do nothing.
func (rt *Runtime) Destroy(ctx context.Context) error {
	rt.mu.Lock()
	if rt.destroyed {
		rt.mu.Unlock()
		return nil
	}
	rt.destroyed = true
	envs := rt.envs
	rt.envs = nil
	rt.mu.Unlock()

	var err error
	for _, env := range envs {
		err = multierr.Combine(err, env.Close(ctx))
	}
	return err
}
