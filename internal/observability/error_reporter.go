package observability

import "go.uber.org/zap"

// ErrorReporter is the side-channel sink for permanent automation failures.
type ErrorReporter interface {
	Report(err error)
}

// LogErrorReporter reports errors through the structured logger.
type LogErrorReporter struct {
	logger *zap.Logger
}

// NewLogErrorReporter constructs a reporter over the logger.
func NewLogErrorReporter(logger *zap.Logger) *LogErrorReporter {
	return &LogErrorReporter{logger: logger}
}

// Report logs the error. Never fails.
func (r *LogErrorReporter) Report(err error) {
	if r == nil || r.logger == nil || err == nil {
		return
	}
	r.logger.Error("automation permanent failure", zap.Error(err))
}
