package types

// Logger is the logging interface consumed across gbps. Callers may supply
// their own implementation through the WithLogger option; definition.NewDefaultLogger
// returns the logrus-backed default used when none is provided.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	ToggleDebug(enabled bool)

	// WithField returns a Logger that tags every subsequent line with the
	// given key/value, used to attribute log lines to a thread (receiver,
	// sampler) the way the original named its OS threads.
	WithField(key string, value interface{}) Logger
}
