// Package apitest — встраиваемый тестовый бэкенд DocPlatform: вход, ротация
// токенов, профиль, счётчики дашборда и загрузка архивов.
package apitest

import (
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"DocPlatform/internal/cli/model"
)

// BasePath — префикс API; клиенту нужен BaseURL = URL + BasePath.
const BasePath = "/api"

type user struct {
	name     string
	email    string
	password []byte
}

// Upload — принятый архив.
type Upload struct {
	ID        int64
	CompanyID string
	Filename  string
	Size      int
	User      string
}

// Server — тестовый бэкенд поверх httptest.Server.
type Server struct {
	*httptest.Server

	Router chi.Router
	logger *zap.SugaredLogger
	tokens *tokenIssuer

	mu            sync.Mutex
	users         map[string]user
	counts        model.DashboardMetrics
	refreshStatus int
	refreshDelay  time.Duration
	refreshCalls  int
	hits          map[string]int
	uploads       []Upload
	companies     []model.Company
}

// New запускает сервер на свободном локальном порту. logger может быть nil.
func New(logger *zap.SugaredLogger) *Server {
	s := NewUnstarted(logger)
	s.Start()
	return s
}

// NewUnstarted собирает сервер без запуска: до Start можно подменить Listener.
func NewUnstarted(logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		logger: logger,
		tokens: newTokenIssuer("apitest-secret", time.Hour),
		users:  make(map[string]user),
		hits:   make(map[string]int),
	}
	s.Router = s.routes()
	s.Server = httptest.NewUnstartedServer(s.Router)
	return s
}

// BaseURL возвращает адрес API для клиента.
func (s *Server) BaseURL() string { return s.URL + BasePath }

// AddUser регистрирует пользователя с bcrypt-хэшем пароля.
func (s *Server) AddUser(name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users[email] = user{name: name, email: email, password: hash}
	s.mu.Unlock()
	return nil
}

// IssueTokens выдаёт пару, как после успешного входа.
func (s *Server) IssueTokens(email string) (model.TokenPair, error) {
	return s.tokens.issue(email)
}

// SetCounts задаёт значения счётчиков дашборда.
func (s *Server) SetCounts(m model.DashboardMetrics) {
	s.mu.Lock()
	s.counts = m
	s.mu.Unlock()
}

// ExpireAccess делает недействительными все выданные access-токены.
func (s *Server) ExpireAccess() { s.tokens.expireAccess() }

// RevokeRefresh погашает все refresh-токены.
func (s *Server) RevokeRefresh() { s.tokens.revokeRefresh() }

// FailRefresh заставляет /token/refresh/ отвечать status; 0 отключает.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	s.refreshStatus = status
	s.mu.Unlock()
}

// RefreshDelay задерживает ответы /token/refresh/.
func (s *Server) RefreshDelay(d time.Duration) {
	s.mu.Lock()
	s.refreshDelay = d
	s.mu.Unlock()
}

// RefreshCalls возвращает число обращений к /token/refresh/.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits возвращает число запросов к пути без префикса API, например "/userinfo/".
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Companies возвращает зарегистрированные компании.
func (s *Server) Companies() []model.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Company(nil), s.companies...)
}

// Uploads возвращает принятые архивы.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}
