package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/config"
)

type fakeCmd struct {
	name string
	err  error
	args []string
}

func (f *fakeCmd) Name() string        { return f.name }
func (f *fakeCmd) Description() string { return "fake command" }
func (f *fakeCmd) Usage() string       { return f.name + " <arg>" }

func (f *fakeCmd) Run(_ context.Context, _ *config.Config, args []string) error {
	f.args = args
	return f.err
}

// captureOut переназначает Out на буфер до конца теста.
func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func registerFake(t *testing.T, cmd *fakeCmd) {
	t.Helper()
	RegisterCmd(cmd)
	t.Cleanup(func() { delete(registry, cmd.name) })
}

func TestDispatch_NoArgsPrintsUsage(t *testing.T) {
	out := captureOut(t)
	code := Dispatch(context.Background(), &config.Config{}, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, out.String(), "DocPlatform CLI")
	assert.Contains(t, out.String(), "login <email> <password>")
}

func TestDispatch_Help(t *testing.T) {
	out := captureOut(t)
	assert.Equal(t, 0, Dispatch(context.Background(), &config.Config{}, []string{"help"}))
	assert.Contains(t, out.String(), "Commands:")

	out.Reset()
	assert.Equal(t, 0, Dispatch(context.Background(), &config.Config{}, []string{"help", "upload"}))
	assert.Equal(t, "Usage: upload <company-id> <zip-path>\n", out.String())

	out.Reset()
	assert.Equal(t, 2, Dispatch(context.Background(), &config.Config{}, []string{"help", "nope"}))
	assert.Contains(t, out.String(), "Unknown command: nope")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	out := captureOut(t)
	code := Dispatch(context.Background(), &config.Config{}, []string{"frobnicate"})
	assert.Equal(t, 2, code)
	assert.Contains(t, out.String(), "Unknown command: frobnicate")
}

func TestDispatch_ExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "ok", code: 0},
		{name: "usage", err: ErrUsage, code: 2, message: "Usage: fake-usage <arg>"},
		{
			name:    "expired",
			err:     fmt.Errorf("profile: %w", &api.AuthExpiredError{Reason: "refresh rejected"}),
			code:    ExitAuthExpired,
			message: "fake-expired error: session expired",
		},
		{name: "failure", err: errors.New("boom"), code: 1, message: "fake-failure error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOut(t)
			cmd := &fakeCmd{name: "fake-" + tt.name, err: tt.err}
			registerFake(t, cmd)

			code := Dispatch(context.Background(), &config.Config{}, []string{cmd.name, "x", "y"})
			assert.Equal(t, tt.code, code)
			assert.Equal(t, []string{"x", "y"}, cmd.args)
			if tt.message != "" {
				assert.Contains(t, out.String(), tt.message)
			}
		})
	}
}

func TestDispatch_CommandNameIsCaseInsensitive(t *testing.T) {
	captureOut(t)
	cmd := &fakeCmd{name: "fake-case"}
	registerFake(t, cmd)
	assert.Equal(t, 0, Dispatch(context.Background(), &config.Config{}, []string{"FAKE-CASE"}))
}
