package logger

// Logger is the structured logging interface shared by the flow core and the
// stabilization driver. Implementations must be safe for use from multiple
// goroutines.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warning(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warning(string, map[string]interface{})      {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return nopLogger{}
}
