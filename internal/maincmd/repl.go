package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/machine"
	"github.com/mna/mainer"
)

// Repl implements the interactive mode: one line of source compiled and run
// per Enter, against a single Heap and Thread kept alive for the whole
// session so that globals and function definitions persist across lines.
// Per spec §6, a CompileError discards the line and a RuntimeError does not
// terminate the REPL; only EOF on stdin does.
func (c *Cmd) Repl(_ context.Context, stdio mainer.Stdio, _ []string) error {
	h := heap.New()
	th := machine.NewThread(h)
	th.Stdout = stdio.Stdout

	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			break
		}
		line := scan.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fn, err := compiler.Compile(h, line)
		if err != nil {
			printError(stdio, err)
			continue
		}
		if err := th.Run(fn); err != nil {
			printError(stdio, err)
			continue
		}
	}
	return scan.Err()
}
