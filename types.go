package commune

import (
	"context"
	"time"
)

// Logger is the structured logger used by the service and controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Registrar creates accounts. UserService implements it.
type Registrar interface {
	Register(ctx context.Context, msg CreateAccountMessage) (*User, error)
}

// Clock returns the current time. Tests swap it for a fixed value.
type Clock func() time.Time

type defLogger struct{}

func (defLogger) Debug(string, ...any) {}
func (defLogger) Info(string, ...any)  {}
func (defLogger) Warn(string, ...any)  {}
func (defLogger) Error(string, ...any) {}
