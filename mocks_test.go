package commune_test

import (
	"context"
	"net/url"

	"github.com/goliatone/go-commune"
	"github.com/goliatone/go-commune/matrix/admin"
	"github.com/stretchr/testify/mock"
)

// MockRequester implements admin.Requester
type MockRequester struct {
	mock.Mock
}

func (m *MockRequester) ServerName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRequester) GetJSON(ctx context.Context, path string) (*admin.Response, error) {
	args := m.Called(ctx, path)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockRequester) GetQuery(ctx context.Context, path string, params url.Values) (*admin.Response, error) {
	args := m.Called(ctx, path, params)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockRequester) PutJSON(ctx context.Context, path string, body any) (*admin.Response, error) {
	args := m.Called(ctx, path, body)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockRequester) PostJSON(ctx context.Context, path string, body any) (*admin.Response, error) {
	args := m.Called(ctx, path, body)
	return response(args.Get(0)), args.Error(1)
}

func response(v any) *admin.Response {
	resp, _ := v.(*admin.Response)
	return resp
}

// MockRegistrar implements commune.Registrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, msg commune.CreateAccountMessage) (*commune.User, error) {
	args := m.Called(ctx, msg)
	user, _ := args.Get(0).(*commune.User)
	return user, args.Error(1)
}
