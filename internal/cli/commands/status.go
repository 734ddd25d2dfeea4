package commands

import (
	"context"
	"errors"
	"fmt"

	"DocPlatform/internal/cli/service"
	"DocPlatform/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show API address, token store and login state" }
func (statusCmd) Usage() string       { return "status" }

// Run не обращается к API: только локальное состояние.
func (statusCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	fmt.Fprintf(Out, "API:         %s\n", cfg.BaseURL)
	fmt.Fprintf(Out, "Token store: %s\n", cfg.TokenStore)
	login, err := app.Auth.CurrentUser()
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(Out, "Session:     not logged in")
	case err != nil:
		return err
	default:
		fmt.Fprintf(Out, "Session:     logged in as %s\n", login)
	}
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
