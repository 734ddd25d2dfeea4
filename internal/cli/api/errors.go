package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthExpired — сессия не может быть восстановлена, требуется повторный вход.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrNoRefreshToken — в хранилище нет refresh-токена.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// NetworkError — ответ не получен: транспортная ошибка или таймаут.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout сообщает, что запрос прерван по таймауту.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// HTTPError — сервер ответил статусом вне 2xx (кроме восстанавливаемого 401).
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, body)
}

// AuthExpiredError — терминальная ошибка аутентификации: refresh не удался
// или свежий токен снова отклонён.
type AuthExpiredError struct {
	Reason string
	Err    error
}

func (e *AuthExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrAuthExpired, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrAuthExpired, e.Reason)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is(err, ErrAuthExpired).
func (e *AuthExpiredError) Is(target error) bool { return target == ErrAuthExpired }

func authExpired(reason string, err error) error {
	var ae *AuthExpiredError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthExpiredError{Reason: reason, Err: err}
}

// Outcome — итог запроса.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeHTTPError
	OutcomeNetworkError
	OutcomeAuthExpired
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeAuthExpired:
		return "auth_expired"
	default:
		return "invalid"
	}
}

// OutcomeOf классифицирует результат вызова Do.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var (
		he *HTTPError
		ne *NetworkError
	)
	switch {
	case errors.Is(err, ErrAuthExpired):
		return OutcomeAuthExpired
	case errors.As(err, &he):
		return OutcomeHTTPError
	case errors.As(err, &ne):
		return OutcomeNetworkError
	default:
		return OutcomeInvalid
	}
}
