package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/osbertngok/openrave/logging"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "camviewer.json")
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)
	return fn
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("CAMVIEWER_TEST_ROBOT", "BarrettWAM")

	fn := writeConfig(t, `{
		"environment": {"home_dir": "/tmp/openrave-home", "data_dirs": ["/a", "/b"]},
		"viewer": {
			"robot_name": "${CAMVIEWER_TEST_ROBOT}",
			"poll_period": "250ms",
			"settle_delay": 2000000000,
			"port": 9000
		},
		"log": [{"pattern": "camviewer.viewer.*", "level": "debug"}],
		"log_file": "/tmp/camviewer.log",
		"unknown": true
	}`)

	cfg, err := Read(context.Background(), fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, fn)
	test.That(t, cfg.Environment.HomeDir, test.ShouldEqual, "/tmp/openrave-home")
	test.That(t, cfg.Environment.DataDirs, test.ShouldResemble, []string{"/a", "/b"})
	test.That(t, cfg.Viewer.RobotName, test.ShouldEqual, "BarrettWAM")
	test.That(t, cfg.Viewer.PollPeriod, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.Viewer.SettleDelay, test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.Viewer.Port, test.ShouldEqual, 9000)
	test.That(t, cfg.Log, test.ShouldResemble, []logging.LoggerPatternConfig{{Pattern: "camviewer.viewer.*", Level: "debug"}})
	test.That(t, cfg.LogFile, test.ShouldEqual, "/tmp/camviewer.log")

	// defaults fill what the file leaves out
	test.That(t, cfg.Viewer.SceneFile, test.ShouldEqual, DefaultSceneFile)
	test.That(t, cfg.Viewer.FallbackTitle, test.ShouldEqual, DefaultFallbackTitle)
}

func TestReadErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(context.Background(), writeConfig(t, `{"viewer": `), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(context.Background(), writeConfig(t, `{"viewer": {"poll_period": "-1s"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "poll_period")

	_, err = Read(context.Background(), writeConfig(t, `{"viewer": {"port": 70000}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(context.Background(), writeConfig(t, `{"environment": {"home_dir": "relative"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(context.Background(), writeConfig(t, `{"log": [{"pattern": "a..b", "level": "info"}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "log.0")
}

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader(context.Background(), "", strings.NewReader(`{}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Viewer.PollPeriod, test.ShouldEqual, DefaultPollPeriod)
	test.That(t, cfg.Viewer.SettleDelay, test.ShouldEqual, DefaultSettleDelay)
	test.That(t, cfg.Viewer.Port, test.ShouldEqual, DefaultPort)
}

func TestEnvironmentFromEnv(t *testing.T) {
	t.Setenv(EnvDatabaseDir, "/db")
	t.Setenv(EnvHomeDir, "/home/sim")
	t.Setenv(EnvDataDirs, strings.Join([]string{"/data/one", "/data/two"}, string(filepath.ListSeparator)))

	env := EnvironmentFromEnv()
	test.That(t, env.DatabaseDir, test.ShouldEqual, "/db")
	test.That(t, env.HomeDir, test.ShouldEqual, "/home/sim")
	test.That(t, env.DataDirs, test.ShouldResemble, []string{"/data/one", "/data/two"})

	// reading does not touch the process environment
	test.That(t, os.Getenv(EnvHomeDir), test.ShouldEqual, "/home/sim")

	merged := Environment{HomeDir: "/other"}.Merge(env)
	test.That(t, merged.HomeDir, test.ShouldEqual, "/other")
	test.That(t, merged.DatabaseDir, test.ShouldEqual, "/db")
	test.That(t, merged.DataDirs, test.ShouldResemble, env.DataDirs)
}

func TestInitLoggingSettings(t *testing.T) {
	logger := logging.NewTestLogger(t)
	defer logging.GlobalLogLevel.SetLevel(logging.INFO.AsZap())

	test.That(t, InitLoggingSettings(logger, false, &Config{Debug: true}), test.ShouldBeNil)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, logging.DEBUG.AsZap())

	test.That(t, InitLoggingSettings(logger, false, nil), test.ShouldBeNil)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, logging.INFO.AsZap())
}
