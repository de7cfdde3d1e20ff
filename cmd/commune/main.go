package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-commune/config"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

const usage = `usage: commune <command> [flags]

commands:
  serve                    run the registration HTTP endpoint
  register                 register an account through the admin API
  users                    list homeserver accounts
  shared-secret-register   register an account with the registration shared secret
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	lgr := &App{logger: newLogger(cfg.Debug)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lgr, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		lgr.GetLogger("cli").Error("command failed", "command", os.Args[1], "error", err)
		stop()
		os.Exit(1)
	}
}

// App carries the root logger shared by every command.
type App struct {
	logger *glog.BaseLogger
}

// GetLogger returns a named child logger.
func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// newLogger logs at info, or at trace when debug is set.
func newLogger(debug bool) *glog.BaseLogger {
	level := glog.Info
	if debug {
		level = glog.Trace
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("commune"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
}
