package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-commune"
	"github.com/goliatone/go-commune/config"
	"github.com/goliatone/go-commune/matrix/admin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type loggerProvider interface {
	GetLogger(name string) glog.Logger
}

func run(ctx context.Context, cfg config.Config, lgr loggerProvider, command string, args []string, out io.Writer) error {
	reg := prometheus.NewRegistry()

	client, err := admin.New(cfg.Admin(),
		admin.WithLogger(lgr.GetLogger("admin")),
		admin.WithDebug(cfg.Debug),
		admin.WithMetrics(admin.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	switch command {
	case "serve":
		return serve(ctx, cfg, lgr, client, reg)
	case "register":
		return registerAccount(ctx, lgr, client, args, out)
	case "users":
		return listUsers(ctx, client, args, out)
	case "shared-secret-register":
		return sharedSecretRegister(ctx, cfg, client, args, out)
	}
	return goerrors.New(fmt.Sprintf("unknown command %q", command), goerrors.CategoryBadInput)
}

func serve(ctx context.Context, cfg config.Config, lgr loggerProvider, client *admin.Client, reg *prometheus.Registry) error {
	logger := lgr.GetLogger("http")
	app := newServer(cfg, lgr, client, reg)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "server_name", cfg.ServerName)
		errc <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}

// newServer builds the fiber app with the registration route and /metrics.
func newServer(cfg config.Config, lgr loggerProvider, client admin.Requester, reg *prometheus.Registry) *fiber.App {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service := commune.NewUserService(client, commune.WithServiceLogger(lgr.GetLogger("register")))
	ctrl := commune.NewAccountController(service,
		commune.WithControllerLogger(lgr.GetLogger("http")),
		commune.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName:               "commune",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTPTimeout,
		WriteTimeout:          cfg.HTTPTimeout,
	})
	commune.RegisterAccountRoutes(app, ctrl)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return app
}

func registerAccount(ctx context.Context, lgr loggerProvider, client admin.Requester, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(out)

	var msg commune.CreateAccountMessage
	fs.StringVar(&msg.Username, "username", "", "account username (8-12 characters)")
	fs.StringVar(&msg.Password, "password", "", "account password (8-12 characters)")
	fs.StringVar(&msg.Email, "email", "", "account email address")
	fs.StringVar(&msg.Session, "session", "", "registration session token")
	fs.StringVar(&msg.Code, "code", "", "verification code")

	if err := fs.Parse(args); err != nil {
		return err
	}

	service := commune.NewUserService(client, commune.WithServiceLogger(lgr.GetLogger("register")))
	user, err := service.Register(ctx, msg)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, print.MaybePrettyJSON(user))
	return err
}

func listUsers(ctx context.Context, client admin.Requester, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	fs.SetOutput(out)

	userID := fs.String("user-id", "", "filter by user id fragment")
	name := fs.String("name", "", "filter by localpart or display name fragment")
	guests := fs.String("guests", "", "include guests (true|false)")
	admins := fs.String("admins", "", "only admins (true) or non-admins (false)")
	deactivated := fs.String("deactivated", "", "include deactivated accounts (true|false)")
	limit := fs.Uint64("limit", 0, "page size")
	from := fs.Uint64("from", 0, "offset to start from")
	all := fs.Bool("all", false, "follow next_token until every page is read")

	if err := fs.Parse(args); err != nil {
		return err
	}

	params := admin.ListUsersParams{
		UserID: optionalString(*userID),
		Name:   optionalString(*name),
	}

	var err error
	if params.Guests, err = optionalBool("guests", *guests); err != nil {
		return err
	}
	if params.Admins, err = optionalBool("admins", *admins); err != nil {
		return err
	}
	if params.Deactivated, err = optionalBool("deactivated", *deactivated); err != nil {
		return err
	}
	if *limit > 0 {
		params.Limit = limit
	}
	if *from > 0 {
		params.From = from
	}

	var result any
	if *all {
		result, err = admin.ListAllUsers(ctx, client, params)
	} else {
		result, err = admin.ListUsers(ctx, client, params)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, print.MaybePrettyJSON(result))
	return err
}

func sharedSecretRegister(ctx context.Context, cfg config.Config, client admin.Requester, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("shared-secret-register", flag.ContinueOnError)
	fs.SetOutput(out)

	var user admin.SharedSecretUser
	fs.StringVar(&user.Username, "username", "", "localpart to register")
	fs.StringVar(&user.Password, "password", "", "account password")
	displayName := fs.String("displayname", "", "display name")
	userType := fs.String("user-type", "", "user type, e.g. bot or support")
	fs.BoolVar(&user.Admin, "admin", false, "register as server admin")

	if err := fs.Parse(args); err != nil {
		return err
	}

	user.DisplayName = optionalString(*displayName)
	user.UserType = optionalString(*userType)

	result, err := admin.RegisterUserWithSecret(ctx, client, cfg.SharedSecret, user)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, print.MaybePrettyJSON(result))
	return err
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalBool(name, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid -"+name+" flag")
	}
	return &b, nil
}

var _ loggerProvider = (*App)(nil)
