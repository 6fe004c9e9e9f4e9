package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/osbertngok/openrave/logging"
)

// InitLoggingSettings applies the debug flag and the logger patterns of cfg. A debug flag from
// either the command line or the file turns on debug logging everywhere.
func InitLoggingSettings(logger logging.Logger, cmdLineDebugFlag bool, cfg *Config) error {
	if cmdLineDebugFlag || (cfg != nil && cfg.Debug) {
		logging.GlobalLogLevel.SetLevel(zapcore.DebugLevel)
	} else {
		logging.GlobalLogLevel.SetLevel(zapcore.InfoLevel)
	}
	logger.Info("Log level initialized: ", logging.GlobalLogLevel.Level())

	if cfg == nil || len(cfg.Log) == 0 {
		return nil
	}
	return logging.UpdateLoggerRegistry(cfg.Log)
}
