// Command client — CLI платформы документов (dpcli).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"DocPlatform/internal/cli/commands"
	"DocPlatform/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()
	if cfg.Version {
		printVersion()
		return
	}

	// Ctrl+C отменяет запрос в полёте, ожидающие обновления токена получают ошибку
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Dispatch(ctx, cfg, flag.Args())
	cancel()
	os.Exit(code)
}

func printVersion() {
	v := version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	fmt.Printf("DocPlatform CLI (dpcli)\nVersion: %s\nBuild date: %s\n", v, buildDate)
}
