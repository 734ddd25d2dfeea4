package apitest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"DocPlatform/internal/cli/model"
)

var (
	errTokenInvalid = errors.New("token is invalid or expired")
	errTokenRevoked = errors.New("token was revoked")
)

type accessClaims struct {
	Epoch int `json:"epoch"`
	jwt.RegisteredClaims
}

// tokenIssuer выдаёт HS256 access-токены и непрозрачные refresh-токены с ротацией.
type tokenIssuer struct {
	secret    []byte
	accessTTL time.Duration

	mu    sync.Mutex
	epoch int
	// sha256(refresh) -> email
	refresh map[string]string
}

func newTokenIssuer(secret string, accessTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		refresh:   make(map[string]string),
	}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (ti *tokenIssuer) issue(email string) (model.TokenPair, error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.issueLocked(email)
}

func (ti *tokenIssuer) issueLocked(email string) (model.TokenPair, error) {
	now := time.Now()
	claims := accessClaims{
		Epoch: ti.epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh := uuid.NewString()
	ti.refresh[hashToken(refresh)] = email
	return model.TokenPair{Access: access, Refresh: refresh}, nil
}

// rotate погашает refresh-токен и выдаёт новую пару.
func (ti *tokenIssuer) rotate(refresh string) (model.TokenPair, error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	key := hashToken(refresh)
	email, ok := ti.refresh[key]
	if !ok {
		return model.TokenPair{}, errTokenInvalid
	}
	delete(ti.refresh, key)
	return ti.issueLocked(email)
}

func (ti *tokenIssuer) parseAccess(raw string) (string, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errTokenInvalid
	}
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if claims.Epoch != ti.epoch {
		return "", errTokenRevoked
	}
	return claims.Subject, nil
}

// expireAccess делает недействительными все выданные access-токены.
func (ti *tokenIssuer) expireAccess() {
	ti.mu.Lock()
	ti.epoch++
	ti.mu.Unlock()
}

// revokeRefresh погашает все refresh-токены.
func (ti *tokenIssuer) revokeRefresh() {
	ti.mu.Lock()
	ti.refresh = make(map[string]string)
	ti.mu.Unlock()
}
