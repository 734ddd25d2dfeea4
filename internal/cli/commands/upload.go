package commands

import (
	"context"
	"fmt"
	"os"

	"DocPlatform/internal/config"
)

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Upload a ZIP archive of company documents" }
func (uploadCmd) Usage() string       { return "upload <company-id> <zip-path>" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	res, err := app.Documents.UploadZip(ctx, args[0], f.Name(), f)
	if err != nil {
		return err
	}
	msg := res.Message
	if msg == "" {
		msg = "Upload successful"
	}
	if res.ID != 0 {
		fmt.Fprintf(Out, "%s (id %d)\n", msg, res.ID)
		return nil
	}
	fmt.Fprintln(Out, msg)
	return nil
}

func init() { RegisterCmd(uploadCmd{}) }
