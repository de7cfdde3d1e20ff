package admin

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const usersPath = "/_synapse/admin/v2/users"

// Third-party identifier media.
const (
	MediumEmail  = "email"
	MediumMSISDN = "msisdn"
)

// ExternalID binds a user to an identity at an external auth provider.
type ExternalID struct {
	AuthProvider string `json:"auth_provider"`
	ExternalID   string `json:"external_id"`
}

// ThreePID is a third-party identifier bound to an account. Timestamps are
// Unix milliseconds.
type ThreePID struct {
	Medium      string `json:"medium"`
	Address     string `json:"address"`
	AddedAt     int64  `json:"added_at"`
	ValidatedAt int64  `json:"validated_at"`
}

// User is the admin API user resource.
type User struct {
	// Name is the fully qualified user id, e.g. "@user:example.com".
	Name                    string       `json:"name"`
	DisplayName             *string      `json:"displayname"`
	ThreePIDs               []ThreePID   `json:"threepids"`
	AvatarURL               *string      `json:"avatar_url"`
	IsGuest                 bool         `json:"is_guest"`
	Admin                   bool         `json:"admin"`
	Deactivated             bool         `json:"deactivated"`
	Erased                  bool         `json:"erased"`
	ShadowBanned            bool         `json:"shadow_banned"`
	CreationTS              int64        `json:"creation_ts"`
	AppserviceID            *string      `json:"appservice_id"`
	ConsentServerNoticeSent *int64       `json:"consent_server_notice_sent"`
	ConsentVersion          *string      `json:"consent_version"`
	ConsentTS               *int64       `json:"consent_ts"`
	ExternalIDs             []ExternalID `json:"external_ids"`
	UserType                *string      `json:"user_type"`
	Locked                  bool         `json:"locked"`
}

// UserRequest is the body of the create-or-modify endpoint. Nil pointers and
// empty slices are omitted so modify requests leave those fields untouched.
type UserRequest struct {
	Password      string       `json:"password,omitempty"`
	LogoutDevices bool         `json:"logout_devices"`
	DisplayName   *string      `json:"displayname,omitempty"`
	AvatarURL     *string      `json:"avatar_url,omitempty"`
	ThreePIDs     []ThreePID   `json:"threepids,omitempty"`
	ExternalIDs   []ExternalID `json:"external_ids,omitempty"`
	Admin         bool         `json:"admin"`
	Deactivated   bool         `json:"deactivated"`
	UserType      *string      `json:"user_type,omitempty"`
	Locked        bool         `json:"locked"`
}

// Intent records why the create-or-modify endpoint is being called.
type Intent int

const (
	IntentCreate Intent = iota
	IntentUpdate
)

func (i Intent) String() string {
	switch i {
	case IntentCreate:
		return "create"
	case IntentUpdate:
		return "update"
	}
	return "unknown"
}

// PutUser calls the create-or-modify account endpoint. The remote API treats
// an existing id as a modification whatever the intent; intent only gates
// local argument checks.
//
// Refer: https://element-hq.github.io/synapse/latest/admin_api/user_admin_api.html#create-or-modify-account
func PutUser(ctx context.Context, r Requester, id UserID, req UserRequest, intent Intent) (*User, error) {
	if id.IsZero() {
		return nil, invalidRequest("user id is required", map[string]any{"intent": intent.String()})
	}

	if intent == IntentCreate && req.Password == "" {
		return nil, invalidRequest("password is required to create a user", map[string]any{
			"user_id": id.String(),
			"intent":  intent.String(),
		})
	}

	resp, err := r.PutJSON(ctx, usersPath+"/"+id.pathSegment(), req)
	if err != nil {
		return nil, err
	}

	user := &User{}
	if err := resp.Decode(user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser allows an administrator to create a user account.
func CreateUser(ctx context.Context, r Requester, id UserID, req UserRequest) (*User, error) {
	return PutUser(ctx, r, id, req, IntentCreate)
}

// UpdateUser allows an administrator to modify a user account.
func UpdateUser(ctx context.Context, r Requester, id UserID, req UserRequest) (*User, error) {
	return PutUser(ctx, r, id, req, IntentUpdate)
}

// GetUser returns a single account. A missing account yields ErrUserNotFound.
//
// Refer: https://element-hq.github.io/synapse/latest/admin_api/user_admin_api.html#query-user-account
func GetUser(ctx context.Context, r Requester, id UserID) (*User, error) {
	if id.IsZero() {
		return nil, invalidRequest("user id is required", nil)
	}

	resp, err := r.GetJSON(ctx, usersPath+"/"+id.pathSegment())
	if err != nil {
		return nil, err
	}

	user := &User{}
	if err := resp.Decode(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsersParams filters the account listing. Nil fields are not sent.
type ListUsersParams struct {
	// UserID filters to ids containing this fragment.
	UserID *string
	// Name filters to ids or display names containing this fragment.
	Name        *string
	Guests      *bool
	Admins      *bool
	Deactivated *bool
	Limit       *uint64
	// From is the offset returned as next_token by the previous page.
	From *uint64
}

// Validate will run validation rules
func (p ListUsersParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Limit, validation.NilOrNotEmpty.Error("must be greater than zero")),
	)
}

// Values encodes the params as a query string.
func (p ListUsersParams) Values() url.Values {
	q := url.Values{}
	if p.UserID != nil {
		q.Set("user_id", *p.UserID)
	}
	if p.Name != nil {
		q.Set("name", *p.Name)
	}
	if p.Guests != nil {
		q.Set("guests", strconv.FormatBool(*p.Guests))
	}
	if p.Admins != nil {
		q.Set("admins", strconv.FormatBool(*p.Admins))
	}
	if p.Deactivated != nil {
		q.Set("deactivated", strconv.FormatBool(*p.Deactivated))
	}
	if p.Limit != nil {
		q.Set("limit", strconv.FormatUint(*p.Limit, 10))
	}
	if p.From != nil {
		q.Set("from", strconv.FormatUint(*p.From, 10))
	}
	return q
}

// UserList is one page of the account listing.
type UserList struct {
	Users []User `json:"users"`
	// NextToken is absent on the last page.
	NextToken *string `json:"next_token"`
	Total     int64   `json:"total"`
}

// HasNext reports whether another page is available.
func (l *UserList) HasNext() bool {
	return l != nil && l.NextToken != nil && strings.TrimSpace(*l.NextToken) != ""
}

// ListUsers returns one page of local user accounts. The remote orders the
// results by ascending user id; the order is preserved.
//
// Refer: https://element-hq.github.io/synapse/latest/admin_api/user_admin_api.html#list-accounts
func ListUsers(ctx context.Context, r Requester, params ListUsersParams) (*UserList, error) {
	if err := params.Validate(); err != nil {
		return nil, wrapError(ErrInvalidRequest, err, nil)
	}

	resp, err := r.GetQuery(ctx, usersPath, params.Values())
	if err != nil {
		return nil, err
	}

	list := &UserList{}
	if err := resp.Decode(list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListAllUsers follows next_token until the listing is exhausted and returns
// the concatenated pages. Each page is one request.
func ListAllUsers(ctx context.Context, r Requester, params ListUsersParams) ([]User, error) {
	var users []User

	for {
		page, err := ListUsers(ctx, r, params)
		if err != nil {
			return nil, err
		}
		users = append(users, page.Users...)

		if !page.HasNext() {
			return users, nil
		}

		next, err := strconv.ParseUint(strings.TrimSpace(*page.NextToken), 10, 64)
		if err != nil {
			return nil, wrapError(ErrDecode, err, map[string]any{"next_token": *page.NextToken})
		}

		if params.From != nil && next <= *params.From {
			return nil, wrapError(ErrRemote, nil, map[string]any{
				"reason":     "pagination token did not advance",
				"from":       *params.From,
				"next_token": next,
			})
		}
		params.From = &next
	}
}
