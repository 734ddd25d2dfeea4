package navigator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLI_RedirectToLogin(t *testing.T) {
	var buf bytes.Buffer
	n := NewCLI(&buf, "", "/auth/login")
	assert.False(t, n.Redirected())

	n.RedirectToLogin()
	assert.True(t, n.Redirected())
	assert.Equal(t, "session expired: please run \"dpcli login\" (/auth/login)\n", buf.String())
}

func TestCLI_NoLoginURL(t *testing.T) {
	var buf bytes.Buffer
	NewCLI(&buf, "docs", "").RedirectToLogin()
	assert.Equal(t, "session expired: please run \"docs login\"\n", buf.String())
}

func TestFunc(t *testing.T) {
	called := 0
	Func(func() { called++ }).RedirectToLogin()
	assert.Equal(t, 1, called)
}
