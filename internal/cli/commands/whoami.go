package commands

import (
	"context"
	"fmt"

	"DocPlatform/internal/config"
)

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Show the profile of the current user" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	info, err := app.User.Profile(ctx)
	if err != nil {
		return err
	}
	name := info.Name
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(Out, "Name:  %s\nEmail: %s\n", name, info.Email)
	return nil
}

func init() { RegisterCmd(whoamiCmd{}) }
