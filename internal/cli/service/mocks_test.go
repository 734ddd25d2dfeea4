package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
)

// --- Моки ---
type mockAPI struct{ mock.Mock }

func (m *mockAPI) Do(ctx context.Context, req api.Request) (*api.Response, error) {
	args := m.Called(ctx, req)
	if v, ok := args.Get(0).(*api.Response); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) GetJSON(ctx context.Context, path string, out any) error {
	return m.Called(ctx, path, out).Error(0)
}

func (m *mockAPI) PostJSON(ctx context.Context, path string, in, out any) error {
	return m.Called(ctx, path, in, out).Error(0)
}

func (m *mockAPI) PostForm(ctx context.Context, path string, form *api.Multipart, out any) error {
	return m.Called(ctx, path, form, out).Error(0)
}

var _ APIClient = (*mockAPI)(nil)

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Load() (model.TokenPair, error) {
	args := m.Called()
	return args.Get(0).(model.TokenPair), args.Error(1)
}
func (m *mockTokens) Save(pair model.TokenPair) error { return m.Called(pair).Error(0) }
func (m *mockTokens) Clear() error                    { return m.Called().Error(0) }

var _ repo.TokenStore = (*mockTokens)(nil)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) SaveLogin(login string) error { return m.Called(login).Error(0) }
func (m *mockUsers) LoadLogin() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
func (m *mockUsers) ClearLogin() error { return m.Called().Error(0) }

var _ repo.UserContextStore = (*mockUsers)(nil)

func jsonResponse(body string) *api.Response {
	return &api.Response{StatusCode: 200, Body: []byte(body)}
}
