// Package logging wires the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetVerbosity maps the CLI verbosity (0=none, 1=debug logs, 2=raw switch
// output, 3=debug+raw output) onto a logrus level. Raw output is logged at
// trace level.
func SetVerbosity(level int) error {
	switch level {
	case 0:
		Logger.SetLevel(logrus.InfoLevel)
	case 1:
		Logger.SetLevel(logrus.DebugLevel)
	case 2, 3:
		Logger.SetLevel(logrus.TraceLevel)
	default:
		return fmt.Errorf("verbosity must be 0, 1, 2, or 3, got %d", level)
	}
	return nil
}

// SetFormat selects "text" or "json" output
func SetFormat(format string) error {
	switch format {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		})
	default:
		return fmt.Errorf("log format %s is invalid, must be 'text' or 'json'", format)
	}
	return nil
}

// SetOutput sets the log output destination
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// WithRun tags every subsequent entry with the run id, replacing the id
// of any earlier run
func WithRun(runID string) {
	hooks := make(logrus.LevelHooks)
	for level, levelHooks := range Logger.Hooks {
		for _, hook := range levelHooks {
			if fh, ok := hook.(*fieldHook); ok && fh.key == "run" {
				continue
			}
			hooks[level] = append(hooks[level], hook)
		}
	}
	hooks.Add(&fieldHook{key: "run", value: runID})
	Logger.ReplaceHooks(hooks)
}

// WithDevice returns a logger with device context
func WithDevice(target string) *logrus.Entry {
	return Logger.WithField("device", target)
}

type fieldHook struct {
	key   string
	value string
}

func (h *fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data[h.key]; !ok {
		entry.Data[h.key] = h.value
	}
	return nil
}
