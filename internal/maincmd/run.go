package maincmd

import (
	"context"
	"os"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/machine"
	"github.com/mna/mainer"
)

// Run implements `loxvm <script>` and `loxvm run <script>...`: each file is
// compiled and run to completion on its own fresh Heap and Thread (spec §6,
// "interpret(source)").
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := runFile(stdio, path); err != nil {
			return err
		}
	}
	return nil
}

func runFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	h := heap.New()
	fn, err := compiler.Compile(h, string(src))
	if err != nil {
		printError(stdio, err)
		return &compileErrorExit{err}
	}

	th := machine.NewThread(h)
	th.Stdout = stdio.Stdout
	if err := th.Run(fn); err != nil {
		printError(stdio, err)
		return &runtimeErrorExit{err}
	}
	return nil
}
