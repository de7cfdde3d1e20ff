// Package admin is a thin client for the Synapse admin API.
//
// Build an authenticated Client with New and pass it to the resource
// functions (CreateUser, UpdateUser, GetUser, ListUsers) or to the
// shared-secret registration helpers (GetNonce, GenerateMAC,
// RegisterWithSharedSecret). The resource functions accept any Requester, so
// callers can substitute a fake transport in tests.
//
// Errors returned by this package are *goerrors.Error values cloned from the
// sentinels in errors.go. Use HasTextCode, IsUserInUse or IsNotFound to branch
// on them. Nothing is retried here; retry policy belongs to the http.Client
// handed to New.
package admin
