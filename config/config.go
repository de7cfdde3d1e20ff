// Package config loads the commune binary settings from the environment.
package config

import (
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-commune/matrix/admin"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the commune runtime settings.
type Config struct {
	MatrixHost   string        `env:"COMMUNE_MATRIX_HOST,required" json:"matrix_host"`
	ServerName   string        `env:"COMMUNE_MATRIX_SERVER_NAME,required" json:"server_name"`
	AdminToken   string        `env:"COMMUNE_MATRIX_ADMIN_TOKEN,required" json:"-"`
	SharedSecret string        `env:"COMMUNE_REGISTRATION_SHARED_SECRET" json:"-"`
	HTTPAddr     string        `env:"COMMUNE_HTTP_ADDR" envDefault:":8572" json:"http_addr"`
	HTTPTimeout  time.Duration `env:"COMMUNE_HTTP_TIMEOUT" envDefault:"10s" json:"http_timeout"`
	Debug        bool          `env:"COMMUNE_DEBUG" envDefault:"false" json:"debug"`
}

// Load reads Config from the process environment and validates it.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom reads Config from environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryValidation, "parse env")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}
	return cfg, nil
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MatrixHost, validation.Required, is.URL),
		validation.Field(&c.ServerName, validation.Required),
		validation.Field(&c.AdminToken, validation.Required),
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.HTTPTimeout, validation.Required, validation.Min(time.Second)),
	)
}

// Admin returns the admin client settings.
func (c Config) Admin() admin.Config {
	return admin.Config{
		BaseURL:     c.MatrixHost,
		AccessToken: c.AdminToken,
		ServerName:  c.ServerName,
		HTTPClient:  &http.Client{Timeout: c.HTTPTimeout},
	}
}
