package commune

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minCredentialLength = 8
	maxCredentialLength = 12
)

// CreateAccountMessage is the sign up request.
type CreateAccountMessage struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Email    string `form:"email" json:"email"`
	Session  string `form:"session" json:"session"`
	Code     string `form:"code" json:"code"`
}

func (e CreateAccountMessage) Type() string { return "account.create" }

// Validate will run validation rules. Field errors are keyed by json name and
// returned as ErrAccountValidation.
func (e CreateAccountMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(
			&e.Username,
			validation.Required,
			validation.Length(minCredentialLength, maxCredentialLength),
		),
		validation.Field(
			&e.Password,
			validation.Required,
			validation.Length(minCredentialLength, maxCredentialLength),
		),
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
	)
	if err == nil {
		return nil
	}
	return newValidationError(err)
}

// User is the local record returned after a successful registration.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Session  string `json:"session"`
	Code     string `json:"code"`
}
