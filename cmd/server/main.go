// Command server — локальная заглушка бэкенда DocPlatform для ручной проверки CLI.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"DocPlatform/internal/apitest"
)

type serverConfig struct {
	Addr         string `env:"STUB_ADDR" envDefault:"localhost:8000"`
	SeedName     string `env:"STUB_USER_NAME" envDefault:"Demo"`
	SeedEmail    string `env:"STUB_USER_EMAIL" envDefault:"demo@example.com"`
	SeedPassword string `env:"STUB_USER_PASSWORD" envDefault:"demo"`
}

func main() {
	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() { _ = logger.Sync() }()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		sugar.Fatalw("failed to parse env", "error", err)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		sugar.Fatalw("failed to listen", "addr", cfg.Addr, "error", err)
	}

	srv := apitest.NewUnstarted(sugar)
	srv.Listener.Close()
	srv.Listener = ln
	if err := srv.AddUser(cfg.SeedName, cfg.SeedEmail, cfg.SeedPassword); err != nil {
		sugar.Fatalw("failed to seed user", "error", err)
	}
	srv.Start()
	defer srv.Close()

	sugar.Infow("Starting stub server",
		"api", srv.BaseURL(),
		"user", cfg.SeedEmail,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	sugar.Infow("Shutting down")
}
