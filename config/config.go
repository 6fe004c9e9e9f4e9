// Package config defines the configuration of the camera viewer and of the simulation runtime.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/osbertngok/openrave/logging"
)

// Defaults applied by FillDefaults.
const (
	DefaultPollPeriod    = 100 * time.Millisecond
	DefaultSettleDelay   = time.Second
	DefaultFallbackTitle = "Camera Sensor"
	DefaultPort          = 8090
	DefaultSceneFile     = "data/testwamcamera.env.xml"
)

// Config describes a camera viewer process.
type Config struct {
	Environment Environment                   `json:"environment"`
	Viewer      Viewer                        `json:"viewer"`
	Log         []logging.LoggerPatternConfig `json:"log,omitempty"`
	Debug       bool                          `json:"debug,omitempty"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `json:"log_file,omitempty"`

	// ConfigFilePath is the path the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// Viewer configures scene selection and the per-sensor viewers.
type Viewer struct {
	SceneFile     string        `json:"scene"`
	RobotName     string        `json:"robot_name"`
	PollPeriod    time.Duration `json:"poll_period"`
	SettleDelay   time.Duration `json:"settle_delay"`
	FallbackTitle string        `json:"fallback_title"`
	Port          int           `json:"port"`
	Headless      bool          `json:"headless"`
}

// Validate ensures all parts of the viewer config are valid.
func (v *Viewer) Validate(path string) error {
	if v.PollPeriod < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("poll_period must be positive, got %v", v.PollPeriod))
	}
	if v.SettleDelay < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("settle_delay must not be negative, got %v", v.SettleDelay))
	}
	if v.Port < 0 || v.Port > 65535 {
		return goutils.NewConfigValidationError(path, errors.Errorf("port %d out of range", v.Port))
	}
	return nil
}

// FillDefaults sets every unset field to its default.
func (v *Viewer) FillDefaults() {
	if v.SceneFile == "" {
		v.SceneFile = DefaultSceneFile
	}
	if v.PollPeriod == 0 {
		v.PollPeriod = DefaultPollPeriod
	}
	if v.SettleDelay == 0 {
		v.SettleDelay = DefaultSettleDelay
	}
	if v.FallbackTitle == "" {
		v.FallbackTitle = DefaultFallbackTitle
	}
	if v.Port == 0 {
		v.Port = DefaultPort
	}
}

// Ensure ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	if err := c.Environment.Validate("environment"); err != nil {
		return err
	}
	if err := c.Viewer.Validate("viewer"); err != nil {
		return err
	}
	for idx, lpc := range c.Log {
		if err := lpc.Validate(); err != nil {
			return goutils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), err)
		}
	}
	return nil
}

// Read reads a config from the given file, substituting ${VAR} references from the process
// environment first.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}

	cfg := &Config{}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   cfg,
		Metadata: &md,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot decode config %q", originalPath)
	}
	for _, key := range md.Unused {
		logger.CDebugw(ctx, "ignoring unknown config key", "key", key, "path", originalPath)
	}

	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	cfg.Viewer.FillDefaults()
	cfg.ConfigFilePath = originalPath
	return cfg, nil
}

// Default returns the config used when no file is given.
func Default() *Config {
	cfg := &Config{Environment: EnvironmentFromEnv()}
	cfg.Viewer.FillDefaults()
	return cfg
}
