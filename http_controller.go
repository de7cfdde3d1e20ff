package commune

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-commune/matrix/admin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AccountControllerRoutes holds the paths the controller is mounted on.
type AccountControllerRoutes struct {
	Register string
}

// AccountController serves the registration endpoint.
type AccountController struct {
	Debug     bool
	Logger    Logger
	Routes    *AccountControllerRoutes
	Registrar Registrar
}

// AccountControllerOption configures an AccountController.
type AccountControllerOption func(*AccountController) *AccountController

// NewAccountController returns a controller that registers accounts with registrar.
func NewAccountController(registrar Registrar, opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:    defLogger{},
		Registrar: registrar,
		Routes: &AccountControllerRoutes{
			Register: "/account/register",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}
	return c
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug logs request payloads and created records.
func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

// WithRegisterRoute overrides the registration path.
func WithRegisterRoute(path string) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if path != "" {
			c.Routes.Register = path
		}
		return c
	}
}

// RegisterAccountRoutes mounts the controller on app.
func RegisterAccountRoutes(app fiber.Router, ctrl *AccountController) {
	app.Post(ctrl.Routes.Register, ctrl.RegistrationCreate).Name("account.register")
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error    string            `json:"error"`
	TextCode string            `json:"text_code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// RegistrationCreate handles POST {Routes.Register}.
func (a *AccountController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(CreateAccountMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Warn("register account parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:    "unable to parse request body",
			TextCode: TextCodeAccountValidation,
		})
	}

	if a.Debug {
		a.Logger.Debug("register account payload", "username", payload.Username, "email", payload.Email)
	}

	user, err := a.Registrar.Register(c.UserContext(), *payload)
	if err != nil {
		status, body := errorResponse(err)
		a.Logger.Error("register account", "username", payload.Username, "status", status, "error", err)
		return c.Status(status).JSON(body)
	}

	if a.Debug {
		a.Logger.Debug("register account created", "record", print.MaybePrettyJSON(user))
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		body.Error = rich.Message
		body.TextCode = rich.TextCode
	}

	switch {
	case IsValidationError(err):
		body.Fields = FieldErrors(err)
		return fiber.StatusBadRequest, body
	case admin.IsUserInUse(err):
		return fiber.StatusConflict, body
	case admin.HasTextCode(err, admin.TextCodeInvalidRequest):
		return fiber.StatusBadRequest, body
	}
	return fiber.StatusBadGateway, body
}
