package repo

import (
	"errors"

	"DocPlatform/internal/cli/model"
)

// ErrNoTokens — в хранилище нет полной пары токенов.
var ErrNoTokens = errors.New("no stored tokens")

// TokenStore описывает абстракцию хранилища пары токенов на клиенте.
// Save заменяет пару целиком: частичная запись не допускается.
type TokenStore interface {
	// Load возвращает сохранённую пару или ErrNoTokens.
	Load() (model.TokenPair, error)
	Save(pair model.TokenPair) error
	// Clear удаляет пару; отсутствие пары ошибкой не считается.
	Clear() error
}

// UserContextStore хранит email, под которым выполнен вход. Пара токенов
// непрозрачна для клиента, поэтому whoami и status берут логин отсюда.
type UserContextStore interface {
	SaveLogin(email string) error
	// LoadLogin возвращает ошибку, если вход не выполнялся.
	LoadLogin() (string, error)
	ClearLogin() error
}
