package memory

import (
	"errors"
	"sync"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
)

// TokenStore хранит пару токенов в памяти процесса.
type TokenStore struct {
	mu     sync.RWMutex
	pair   model.TokenPair
	saves  int
	clears int
}

var _ repo.TokenStore = (*TokenStore)(nil)

// NewTokenStore создаёт хранилище, при необходимости с начальной парой.
func NewTokenStore(initial *model.TokenPair) *TokenStore {
	s := &TokenStore{}
	if initial != nil {
		s.pair = *initial
	}
	return s
}

// Load возвращает копию текущей пары.
func (s *TokenStore) Load() (model.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.pair.Complete() {
		return model.TokenPair{}, repo.ErrNoTokens
	}
	return s.pair, nil
}

// Save заменяет пару целиком.
func (s *TokenStore) Save(pair model.TokenPair) error {
	if !pair.Complete() {
		return errors.New("incomplete token pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.saves++
	return nil
}

// Clear забывает пару.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = model.TokenPair{}
	s.clears++
	return nil
}

// Stats возвращает число вызовов Save и Clear.
func (s *TokenStore) Stats() (saves, clears int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves, s.clears
}
