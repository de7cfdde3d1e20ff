package admin

import (
	"net/url"
	"strings"
)

// UserID is a fully qualified Matrix user id, "@localpart:server".
type UserID struct {
	localpart  string
	serverName string
}

// NewUserID builds a user id from a localpart and the homeserver name.
func NewUserID(localpart, serverName string) UserID {
	return UserID{
		localpart:  strings.TrimPrefix(strings.TrimSpace(localpart), "@"),
		serverName: strings.TrimSpace(serverName),
	}
}

// ParseUserID parses "@localpart:server". The server part may carry a port.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "@") {
		return UserID{}, invalidRequest("user id must start with @", map[string]any{"user_id": raw})
	}

	localpart, server, ok := strings.Cut(raw[1:], ":")
	if !ok || localpart == "" || server == "" {
		return UserID{}, invalidRequest("user id must look like @localpart:server", map[string]any{"user_id": raw})
	}

	return UserID{localpart: localpart, serverName: server}, nil
}

// Localpart returns the part before the colon, without the sigil.
func (u UserID) Localpart() string {
	return u.localpart
}

// ServerName returns the homeserver part.
func (u UserID) ServerName() string {
	return u.serverName
}

// IsZero reports whether either part is missing.
func (u UserID) IsZero() bool {
	return u.localpart == "" || u.serverName == ""
}

func (u UserID) String() string {
	return "@" + u.localpart + ":" + u.serverName
}

// pathSegment escapes the id for use inside a URL path.
func (u UserID) pathSegment() string {
	return url.PathEscape(u.String())
}
