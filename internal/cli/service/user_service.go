package service

import (
	"context"
	"encoding/json"
	"fmt"

	"DocPlatform/internal/cli/model"
)

// UserService отдаёт профиль пользователя.
type UserService interface {
	Profile(ctx context.Context) (model.UserInfo, error)
}

type userService struct {
	api APIClient
}

func NewUserService(client APIClient) UserService {
	return &userService{api: client}
}

func (s *userService) Profile(ctx context.Context) (model.UserInfo, error) {
	var raw json.RawMessage
	if err := s.api.GetJSON(ctx, "/userinfo/", &raw); err != nil {
		return model.UserInfo{}, fmt.Errorf("user info: %w", err)
	}
	var info model.UserInfo
	if err := json.Unmarshal(unwrapData(raw), &info); err != nil {
		return model.UserInfo{}, fmt.Errorf("user info: %w", err)
	}
	return info, nil
}
