package contract

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Diagnostics go to stderr so that
// report output on stdout stays machine-readable.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// SetLogLevel changes the level of the process-wide logger.
func SetLogLevel(level logrus.Level) {
	Logger.SetLevel(level)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger.WithError(err).Error(msg)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Logger.WithError(err).Warn(msg)
}

// LogInfo logs an informational message with optional structured fields.
func LogInfo(msg string, fields logrus.Fields) {
	Logger.WithFields(fields).Info(msg)
}

// LogDebug logs a debug message with optional structured fields.
func LogDebug(msg string, fields logrus.Fields) {
	Logger.WithFields(fields).Debug(msg)
}
