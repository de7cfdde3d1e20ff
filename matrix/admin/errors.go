package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUserInUse      = "admin_user_in_use"
	TextCodeUserNotFound   = "admin_user_not_found"
	TextCodeTransport      = "admin_transport_failed"
	TextCodeDecode         = "admin_decode_failed"
	TextCodeInvalidNonce   = "admin_invalid_nonce"
	TextCodeInvalidMAC     = "admin_invalid_mac"
	TextCodeUnauthorized   = "admin_unauthorized"
	TextCodeInvalidRequest = "admin_invalid_request"
	TextCodeRemote         = "admin_remote_failed"
)

// Matrix error codes we branch on.
const (
	ErrCodeUserInUse    = "M_USER_IN_USE"
	ErrCodeNotFound     = "M_NOT_FOUND"
	ErrCodeUnknownToken = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken = "M_MISSING_TOKEN"
	ErrCodeForbidden    = "M_FORBIDDEN"
)

// ErrUserInUse is returned when the requested user id is already registered.
var ErrUserInUse = goerrors.New("user id already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserInUse).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when the admin API has no such user.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTransport is returned when the request never produced a response.
var ErrTransport = goerrors.New("admin api request failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeTransport).
	WithCode(goerrors.CodeInternal)

// ErrDecode is returned when a response body does not match the expected schema.
var ErrDecode = goerrors.New("failed to decode admin api response", goerrors.CategoryInternal).
	WithTextCode(TextCodeDecode).
	WithCode(goerrors.CodeInternal)

// ErrInvalidNonce is returned when the registration nonce is unknown or expired.
var ErrInvalidNonce = goerrors.New("registration nonce is invalid or expired", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidNonce).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidMAC is returned when the server rejects the shared-secret MAC.
var ErrInvalidMAC = goerrors.New("registration mac rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidMAC).
	WithCode(goerrors.CodeForbidden)

// ErrUnauthorized is returned when the access token is missing, unknown or not an admin.
var ErrUnauthorized = goerrors.New("admin api rejected credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidRequest is returned before any network call when arguments are unusable.
var ErrInvalidRequest = goerrors.New("invalid admin api request", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRequest).
	WithCode(goerrors.CodeBadRequest)

// ErrRemote is returned for any other non-2xx admin API response.
var ErrRemote = goerrors.New("admin api returned an error", goerrors.CategoryInternal).
	WithTextCode(TextCodeRemote).
	WithCode(goerrors.CodeInternal)

// APIError captures a normalized non-2xx admin API response.
type APIError struct {
	Method  string `json:"-"`
	Path    string `json:"-"`
	Status  int    `json:"-"`
	ErrCode string `json:"errcode"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "admin api error"
	}

	scope := "admin api"
	if e.Method != "" && e.Path != "" {
		scope = fmt.Sprintf("admin %s %s", e.Method, e.Path)
	}

	switch {
	case e.ErrCode != "" && e.Message != "":
		return fmt.Sprintf("%s failed (%d %s): %s", scope, e.Status, e.ErrCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s failed (%d): %s", scope, e.Status, e.Message)
	case e.ErrCode != "":
		return fmt.Sprintf("%s failed (%d): %s", scope, e.Status, e.ErrCode)
	}

	return fmt.Sprintf("%s failed (%d)", scope, e.Status)
}

// Metadata returns the fields attached to wrapped errors.
func (e *APIError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Method != "" {
		meta["method"] = e.Method
	}
	if e.Path != "" {
		meta["path"] = e.Path
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.ErrCode != "" {
		meta["errcode"] = e.ErrCode
	}
	if e.Message != "" {
		meta["remote_error"] = e.Message
	}
	return meta
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.ErrCode == "" && apiErr.Message == "") {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.Method = method
	apiErr.Path = path
	apiErr.Status = status
	return apiErr
}

// classify picks the sentinel that matches a remote failure.
func classify(apiErr *APIError) *goerrors.Error {
	msg := strings.ToLower(apiErr.Message)

	// Nonce and MAC failures only come from the shared-secret register endpoint.
	register := apiErr.Path == registerPath

	switch {
	case apiErr.ErrCode == ErrCodeUserInUse:
		return ErrUserInUse
	case register && strings.Contains(msg, "nonce"):
		return ErrInvalidNonce
	case register && strings.Contains(msg, "hmac"):
		return ErrInvalidMAC
	case apiErr.Status == http.StatusNotFound || apiErr.ErrCode == ErrCodeNotFound:
		return ErrUserNotFound
	case apiErr.Status == http.StatusUnauthorized,
		apiErr.Status == http.StatusForbidden,
		apiErr.ErrCode == ErrCodeUnknownToken,
		apiErr.ErrCode == ErrCodeMissingToken:
		return ErrUnauthorized
	}

	return ErrRemote
}

func wrapAPIError(apiErr *APIError) error {
	return wrapError(classify(apiErr), apiErr, apiErr.Metadata())
}

// wrapError clones base so sentinels are never mutated.
func wrapError(base *goerrors.Error, err error, meta map[string]any) error {
	clone := base.Clone()
	if err != nil {
		clone.Source = err
		if meta == nil {
			meta = map[string]any{}
		}
		if _, ok := meta["error"]; !ok {
			meta["error"] = err.Error()
		}
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}

func invalidRequest(reason string, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["reason"] = reason
	return wrapError(ErrInvalidRequest, nil, meta)
}

// HasTextCode reports whether err is a go-errors value carrying code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// IsUserInUse reports whether err signals a user id collision.
func IsUserInUse(err error) bool {
	return HasTextCode(err, TextCodeUserInUse)
}

// IsNotFound reports whether err signals a missing user.
func IsNotFound(err error) bool {
	return HasTextCode(err, TextCodeUserNotFound)
}
