package commune

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAccountValidation = "account_validation_failed"
	TextCodeRemoteInvariant   = "remote_invariant_violated"
)

// ErrAccountValidation is returned when a CreateAccountMessage is rejected
// locally. Metadata "fields" maps json field names to messages.
var ErrAccountValidation = goerrors.New("invalid account request", goerrors.CategoryValidation).
	WithTextCode(TextCodeAccountValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrRemoteInvariant is returned when the homeserver answers with a user
// resource we cannot turn into a local record.
var ErrRemoteInvariant = goerrors.New("remote user resource is incomplete", goerrors.CategoryInternal).
	WithTextCode(TextCodeRemoteInvariant).
	WithCode(goerrors.CodeInternal)

func newValidationError(err error) error {
	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	clone := ErrAccountValidation.Clone()
	clone.Source = err
	clone.WithMetadata(map[string]any{"fields": fields})
	return clone
}

func remoteInvariant(reason, userID string) error {
	clone := ErrRemoteInvariant.Clone()
	clone.WithMetadata(map[string]any{
		"reason":  reason,
		"user_id": userID,
	})
	return clone
}

// FieldErrors returns the per field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != TextCodeAccountValidation {
		return nil
	}
	fields, _ := rich.Metadata["fields"].(map[string]string)
	return fields
}

// IsValidationError reports whether err came from CreateAccountMessage.Validate.
func IsValidationError(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeAccountValidation
}

// IsRemoteInvariant reports whether err signals an incomplete remote resource.
func IsRemoteInvariant(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeRemoteInvariant
}
