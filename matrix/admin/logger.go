package admin

// Logger is the structured logger used by the client. It matches the method
// set of glog.Logger so named loggers can be passed straight through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type defLogger struct{}

func (defLogger) Debug(string, ...any) {}
func (defLogger) Info(string, ...any)  {}
func (defLogger) Warn(string, ...any)  {}
func (defLogger) Error(string, ...any) {}
