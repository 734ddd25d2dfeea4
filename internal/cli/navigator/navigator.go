// Package navigator реализует переход на вход для консольного клиента.
package navigator

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// CLI печатает подсказку о повторном входе. Консоль не умеет переходить на
// страницу входа, поэтому «переход» — это сообщение пользователю.
type CLI struct {
	mu       sync.Mutex
	out      io.Writer
	program  string
	loginURL string

	redirects atomic.Int32
}

// NewCLI создаёт навигатор. loginURL показывается рядом с командой входа.
func NewCLI(out io.Writer, program, loginURL string) *CLI {
	if program == "" {
		program = "dpcli"
	}
	return &CLI{out: out, program: program, loginURL: loginURL}
}

func (n *CLI) RedirectToLogin() {
	n.redirects.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loginURL != "" {
		fmt.Fprintf(n.out, "session expired: please run %q (%s)\n", n.program+" login", n.loginURL)
		return
	}
	fmt.Fprintf(n.out, "session expired: please run %q\n", n.program+" login")
}

// Redirected сообщает, выполнялся ли переход.
func (n *CLI) Redirected() bool { return n.redirects.Load() > 0 }

// Func позволяет использовать функцию как навигатор.
type Func func()

func (f Func) RedirectToLogin() { f() }
