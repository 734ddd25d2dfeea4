package commands

import (
	"context"
	"fmt"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/config"
)

type signupCmd struct{}

func (signupCmd) Name() string        { return "signup" }
func (signupCmd) Description() string { return "Create an account (then run login)" }
func (signupCmd) Usage() string       { return "signup <name> <email> <password> [dob] [phone]" }

func (signupCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return ErrUsage
	}
	req := model.SignupRequest{
		Name:            args[0],
		Email:           args[1],
		Password:        args[2],
		ConfirmPassword: args[2],
	}
	if len(args) > 3 {
		req.DOB = args[3]
	}
	if len(args) > 4 {
		req.PhoneNumber = args[4]
	}

	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	if err := app.Auth.Signup(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Account %s created, now run: dpcli login %s <password>\n", req.Email, req.Email)
	return nil
}

func init() { RegisterCmd(signupCmd{}) }
