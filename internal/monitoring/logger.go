// Package monitoring provides the package-level diagnostic loggers used
// across the library. Identifier-alignment mismatches and transform traces
// are reported here rather than through returned errors, matching the
// convention that metadata mismatches warn but never abort a read.
package monitoring

import "log"

// Debugf logs low-level progress (file loads, transform traces). It defaults
// to a no-op; replace it via SetDebug to enable tracing.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// Warnf logs recoverable problems, such as samples present in metadata but
// absent from the data table. It defaults to log.Printf with a "warning:"
// prefix and may be replaced or muted via SetWarn.
var Warnf func(format string, v ...interface{}) = defaultWarn

func defaultWarn(format string, v ...interface{}) {
	log.Printf("warning: "+format, v...)
}

// SetDebug replaces the debug logger. Passing nil mutes it.
func SetDebug(f func(format string, v ...interface{})) {
	if f == nil {
		Debugf = func(string, ...interface{}) {}
		return
	}
	Debugf = f
}

// SetWarn replaces the warning logger. Passing nil mutes it.
func SetWarn(f func(format string, v ...interface{})) {
	if f == nil {
		Warnf = func(string, ...interface{}) {}
		return
	}
	Warnf = f
}
