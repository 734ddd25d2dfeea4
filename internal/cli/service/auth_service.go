package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
)

var (
	ErrEmptyCredentials = errors.New("email and password are required")
	ErrLoginRejected    = errors.New("login rejected")
	ErrSignupRejected   = errors.New("signup rejected")
	ErrNotLoggedIn      = errors.New("not logged in")
)

// AuthService описывает юзкейс-уровень аутентификации для CLI.
type AuthService interface {
	// Login выполняет вход и сохраняет пару токенов.
	Login(ctx context.Context, email, password string) error

	// Signup регистрирует пользователя. Токены не выдаются.
	Signup(ctx context.Context, req model.SignupRequest) error

	// Logout очищает локальный контекст аутентификации.
	Logout() error

	// CurrentUser возвращает email текущего пользователя, если он установлен.
	CurrentUser() (string, error)
}

type authService struct {
	api    APIClient
	tokens repo.TokenStore
	users  repo.UserContextStore
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(client APIClient, tokens repo.TokenStore, users repo.UserContextStore) AuthService {
	return &authService{api: client, tokens: tokens, users: users}
}

func (s *authService) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrEmptyCredentials
	}

	resp, err := s.api.Do(ctx, api.Request{
		Method:     http.MethodPost,
		Path:       "/login/",
		JSON:       model.LoginRequest{Email: email, Password: password},
		AuthExempt: true,
	})
	if err != nil {
		if msg, ok := rejection(err); ok {
			return fmt.Errorf("%w: %s", ErrLoginRejected, msg)
		}
		return fmt.Errorf("login: %w", err)
	}

	var env model.Envelope
	if err := resp.DecodeJSON(&env); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "invalid credentials"
		}
		return fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}
	var pair model.TokenPair
	if err := json.Unmarshal(env.Data, &pair); err != nil || !pair.Complete() {
		return errors.New("login: response has no token pair")
	}

	if err := s.tokens.Save(pair); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	if err := s.users.SaveLogin(email); err != nil {
		return fmt.Errorf("save login: %w", err)
	}
	return nil
}

func (s *authService) Signup(ctx context.Context, req model.SignupRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return ErrEmptyCredentials
	}
	if req.ConfirmPassword == "" {
		req.ConfirmPassword = req.Password
	}
	resp, err := s.api.Do(ctx, api.Request{
		Method:     http.MethodPost,
		Path:       "/signup/",
		JSON:       req,
		AuthExempt: true,
	})
	if err != nil {
		if msg, ok := rejection(err); ok {
			return fmt.Errorf("%w: %s", ErrSignupRejected, msg)
		}
		return fmt.Errorf("signup: %w", err)
	}
	var env model.Envelope
	if err := resp.DecodeJSON(&env); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrSignupRejected, env.Message)
	}
	return nil
}

func (s *authService) Logout() error {
	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return s.users.ClearLogin()
}

func (s *authService) CurrentUser() (string, error) {
	if _, err := s.tokens.Load(); err != nil {
		if errors.Is(err, repo.ErrNoTokens) {
			return "", ErrNotLoggedIn
		}
		return "", err
	}
	login, err := s.users.LoadLogin()
	if err != nil {
		return "", ErrNotLoggedIn
	}
	return login, nil
}
