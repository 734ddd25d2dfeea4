package bootstrap

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/cli/navigator"
	"DocPlatform/internal/cli/repo"
	"DocPlatform/internal/cli/service"
	"DocPlatform/internal/config"
)

// App — зависимости, которые нужны командам.
type App struct {
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Tokens    repo.TokenStore
	Users     repo.UserContextStore
	Client    *api.Client
	Navigator *navigator.CLI
	Registry  *prometheus.Registry

	Auth      service.AuthService
	User      service.UserService
	Dashboard service.DashboardService
	Documents service.DocumentService
	Companies service.CompanyService
}

// Open собирает App поверх конфига. Сообщения навигатора пишутся в out.
// cleanup закрывает хранилище и сбрасывает буфер логгера.
func Open(cfg *config.Config, out io.Writer) (*App, func() error, error) {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	tokens, closeStore, err := OpenTokenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	users, err := OpenUserContext(cfg)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	nav := navigator.NewCLI(out, "dpcli", cfg.LoginURL)
	reg := prometheus.NewRegistry()
	client, err := api.New(cfg.BaseURL, tokens, nav,
		api.WithLogger(logger.Named("api")),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRefreshTimeout(cfg.RefreshTimeout),
		api.WithRegisterer(reg),
	)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("api client: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Users:     users,
		Client:    client,
		Navigator: nav,
		Registry:  reg,
		Auth:      service.NewAuthService(client, tokens, users),
		User:      service.NewUserService(client),
		Dashboard: service.NewDashboardService(client),
		Documents: service.NewDocumentService(client),
		Companies: service.NewCompanyService(client),
	}
	cleanup := func() error {
		logRequestStats(logger, reg)
		// Sync на stderr-консоли возвращает EINVAL/ENOTTY, это не ошибка
		_ = logger.Sync()
		return closeStore()
	}
	return app, cleanup, nil
}

// logRequestStats выводит счётчики клиента в debug-лог.
func logRequestStats(logger *zap.SugaredLogger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logger.Debugw("gather client metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]any, 0, 2*len(m.GetLabel())+4)
			labels = append(labels, "metric", mf.GetName(), "value", m.GetCounter().GetValue())
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName(), lp.GetValue())
			}
			logger.Debugw("client metric", labels...)
		}
	}
}
