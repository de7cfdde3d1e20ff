// Package commune registers chat accounts on a Matrix homeserver through the
// Synapse admin API.
//
// Registration:
//   - CreateAccountMessage carries the sign up form. Validate checks lengths
//     and the email address before anything leaves the process.
//   - UserService.Register turns a valid message into a remote user resource
//     (display name, password, a pre-validated email threepid) and reshapes
//     the response into a local User record. A username that already exists
//     on the homeserver is reported as admin.ErrUserInUse.
//
// HTTP:
//   - AccountController exposes Register over fiber. Validation failures,
//     collisions and remote failures map to 400, 409 and 502.
//
// The low level admin calls, the shared-secret registration handshake and
// the authenticated client live in package matrix/admin.
package commune
