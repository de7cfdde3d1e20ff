package admin

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const registerPath = "/_synapse/admin/v1/register"

// SharedSecretRegistration is the body of the shared-secret register call.
type SharedSecretRegistration struct {
	Nonce       string  `json:"nonce"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayname,omitempty"`
	Password    string  `json:"password"`
	Admin       bool    `json:"admin"`
	UserType    *string `json:"user_type,omitempty"`
	MAC         string  `json:"mac"`
}

// SharedSecretRegistrationResult is returned by a successful registration.
type SharedSecretRegistrationResult struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	HomeServer  string `json:"home_server,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
}

// GetNonce fetches a single-use registration nonce.
//
// Refer: https://element-hq.github.io/synapse/latest/admin_api/register_api.html
func GetNonce(ctx context.Context, r Requester) (string, error) {
	resp, err := r.GetJSON(ctx, registerPath)
	if err != nil {
		return "", err
	}

	var out nonceResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}

	if strings.TrimSpace(out.Nonce) == "" {
		return "", wrapError(ErrDecode, nil, map[string]any{
			"path":   registerPath,
			"reason": "response has no nonce",
		})
	}
	return out.Nonce, nil
}

// GenerateMAC computes the hex HMAC-SHA1 the homeserver expects for a
// shared-secret registration. The message is nonce, username, password and
// "admin" or "notadmin" joined by NUL bytes, followed by the user type when
// one is given. Field order and separator must match the server exactly.
func GenerateMAC(secret, nonce, username, password string, admin bool, userType *string) (string, error) {
	if secret == "" {
		return "", invalidRequest("registration shared secret is required", nil)
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(nonce))
	mac.Write([]byte{0})
	mac.Write([]byte(username))
	mac.Write([]byte{0})
	mac.Write([]byte(password))
	mac.Write([]byte{0})
	if admin {
		mac.Write([]byte("admin"))
	} else {
		mac.Write([]byte("notadmin"))
	}
	if userType != nil {
		mac.Write([]byte{0})
		mac.Write([]byte(*userType))
	}

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// RegisterWithSharedSecret submits a registration carrying a nonce and MAC.
// The server rejects reused or expired nonces (ErrInvalidNonce), a MAC it
// cannot reproduce (ErrInvalidMAC) and taken usernames (ErrUserInUse).
func RegisterWithSharedSecret(ctx context.Context, r Requester, reg SharedSecretRegistration) (*SharedSecretRegistrationResult, error) {
	if reg.Nonce == "" || reg.Username == "" || reg.MAC == "" {
		return nil, invalidRequest("nonce, username and mac are required", map[string]any{"username": reg.Username})
	}

	resp, err := r.PostJSON(ctx, registerPath, reg)
	if err != nil {
		return nil, err
	}

	result := &SharedSecretRegistrationResult{}
	if err := resp.Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

// SharedSecretUser describes an account to register with the shared secret.
type SharedSecretUser struct {
	Username    string
	Password    string
	DisplayName *string
	Admin       bool
	UserType    *string
}

// RegisterUserWithSecret runs the full flow: fetch a nonce, sign it and
// register. A rejected nonce is not retried; call again for a fresh one.
func RegisterUserWithSecret(ctx context.Context, r Requester, secret string, user SharedSecretUser) (*SharedSecretRegistrationResult, error) {
	nonce, err := GetNonce(ctx, r)
	if err != nil {
		return nil, err
	}

	mac, err := GenerateMAC(secret, nonce, user.Username, user.Password, user.Admin, user.UserType)
	if err != nil {
		return nil, err
	}

	return RegisterWithSharedSecret(ctx, r, SharedSecretRegistration{
		Nonce:       nonce,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Password:    user.Password,
		Admin:       user.Admin,
		UserType:    user.UserType,
		MAC:         mac,
	})
}
