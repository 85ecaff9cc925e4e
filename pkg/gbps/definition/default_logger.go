// Package definition holds the default implementations of collaborator
// interfaces a caller may otherwise supply themselves.
package definition

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// NewDefaultLogger returns the logger used when a Service is constructed
// without an explicit Logger option. It writes structured lines to
// stderr through logrus, the way the teacher wraps the standard library's
// log.Logger but with level-aware fields instead of a bare prefix string.
func NewDefaultLogger() types.Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.InfoLevel)
	return &logrusLogger{entry: logrus.NewEntry(base)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Info(v ...interface{})                    { l.entry.Info(v...) }
func (l *logrusLogger) Infof(format string, v ...interface{})    { l.entry.Infof(format, v...) }
func (l *logrusLogger) Warn(v ...interface{})                     { l.entry.Warn(v...) }
func (l *logrusLogger) Warnf(format string, v ...interface{})    { l.entry.Warnf(format, v...) }
func (l *logrusLogger) Error(v ...interface{})                    { l.entry.Error(v...) }
func (l *logrusLogger) Errorf(format string, v ...interface{})  { l.entry.Errorf(format, v...) }
func (l *logrusLogger) Debug(v ...interface{})                    { l.entry.Debug(v...) }
func (l *logrusLogger) Debugf(format string, v ...interface{})  { l.entry.Debugf(format, v...) }

func (l *logrusLogger) ToggleDebug(enabled bool) {
	if enabled {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}

func (l *logrusLogger) WithField(key string, value interface{}) types.Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}
