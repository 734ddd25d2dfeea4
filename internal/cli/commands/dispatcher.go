package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/config"
)

// ExitAuthExpired — код выхода, когда сессию восстановить не удалось.
const ExitAuthExpired = 3

// Dispatch is the single entry point to execute CLI commands.
// It prints help and usage messages and returns a process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// If user passed global --help after flags parsing, show global usage
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	name := strings.ToLower(args[0])
	if name == "help" { // dpcli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
			return 0
		}
		return unknown(args[1])
	}

	c, ok := Get(name)
	if !ok {
		return unknown(name)
	}

	return report(c, c.Run(ctx, cfg, args[1:]))
}

// report печатает итог команды и переводит ошибку в код выхода:
// 0 успех, 1 ошибка, 2 неверные аргументы, ExitAuthExpired потеря сессии.
func report(c Command, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return 2
	case errors.Is(err, api.ErrAuthExpired):
		// подсказку о входе уже напечатал навигатор
		fmt.Fprintf(Out, "%s error: session expired\n", c.Name())
		return ExitAuthExpired
	default:
		fmt.Fprintf(Out, "%s error: %v\n", c.Name(), err)
		return 1
	}
}

func unknown(name string) int {
	fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
	fmt.Fprint(Out, FormatGlobalUsage())
	return 2
}
