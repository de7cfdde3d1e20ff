package commune

import (
	"context"
	"time"

	"github.com/goliatone/go-commune/matrix/admin"
	goerrors "github.com/goliatone/go-errors"
)

// UserService registers accounts on the homeserver behind an admin.Requester.
type UserService struct {
	admin  admin.Requester
	logger Logger
	now    Clock
}

// ServiceOption configures a UserService.
type ServiceOption func(*UserService) *UserService

// WithServiceLogger sets the logger.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *UserService) *UserService {
		if logger != nil {
			s.logger = logger
		}
		return s
	}
}

// WithClock sets the clock used for threepid timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *UserService) *UserService {
		if clock != nil {
			s.now = clock
		}
		return s
	}
}

// NewUserService returns a service bound to requester. The server name used
// for user ids comes from requester.ServerName().
func NewUserService(requester admin.Requester, opts ...ServiceOption) *UserService {
	s := &UserService{
		admin:  requester,
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			s = opt(s)
		}
	}
	return s
}

// Register validates msg, creates the user on the homeserver and returns the
// local record. It is not idempotent: a second call with the same username
// fails with admin.ErrUserInUse.
func (s *UserService) Register(ctx context.Context, msg CreateAccountMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return s.register(ctx, msg)
	}
}

func (s *UserService) register(ctx context.Context, msg CreateAccountMessage) (*User, error) {
	if err := msg.Validate(); err != nil {
		s.logger.Debug("account request rejected", "username", msg.Username, "fields", FieldErrors(err))
		return nil, err
	}

	id := admin.NewUserID(msg.Username, s.admin.ServerName())

	// The admin PUT creates or modifies, so a taken id has to be caught here.
	if _, err := admin.GetUser(ctx, s.admin, id); err == nil {
		s.logger.Info("account already exists", "user_id", id.String())
		return nil, userInUse(id)
	} else if !admin.IsNotFound(err) {
		s.logger.Error("account lookup failed", "user_id", id.String(), "error", err)
		return nil, err
	}

	remote, err := admin.CreateUser(ctx, s.admin, id, s.userRequest(msg))
	if err != nil {
		s.logger.Error("account creation failed", "user_id", id.String(), "error", err)
		return nil, err
	}

	user, err := toLocalUser(remote, msg)
	if err != nil {
		s.logger.Error("account created with incomplete resource", "user_id", id.String(), "error", err)
		return nil, err
	}

	s.logger.Info("account registered", "user_id", id.String())
	return user, nil
}

// userRequest builds the remote resource. The email is sent as already
// validated; session and code are carried through untouched.
func (s *UserService) userRequest(msg CreateAccountMessage) admin.UserRequest {
	ts := s.now().UnixMilli()
	displayName := msg.Username

	return admin.UserRequest{
		Password:    msg.Password,
		DisplayName: &displayName,
		ThreePIDs: []admin.ThreePID{
			{
				Medium:      admin.MediumEmail,
				Address:     msg.Email,
				AddedAt:     ts,
				ValidatedAt: ts,
			},
		},
		ExternalIDs: []admin.ExternalID{},
	}
}

func toLocalUser(remote *admin.User, msg CreateAccountMessage) (*User, error) {
	if remote == nil {
		return nil, remoteInvariant("empty response", "")
	}
	if remote.DisplayName == nil || *remote.DisplayName == "" {
		return nil, remoteInvariant("missing displayname", remote.Name)
	}
	if len(remote.ThreePIDs) == 0 {
		return nil, remoteInvariant("missing threepids", remote.Name)
	}

	return &User{
		Username: *remote.DisplayName,
		Email:    remote.ThreePIDs[0].Address,
		Session:  msg.Session,
		Code:     msg.Code,
	}, nil
}

func userInUse(id admin.UserID) error {
	clone := admin.ErrUserInUse.Clone()
	clone.WithMetadata(map[string]any{"user_id": id.String()})
	return clone
}
