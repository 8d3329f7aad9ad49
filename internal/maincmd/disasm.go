package maincmd

import (
	"context"
	"os"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/value"
	"github.com/mna/mainer"
)

// Disasm compiles each file but never runs it, printing a static
// disassembly listing of the top-level chunk and every nested function's
// chunk (spec SPEC_FULL §12 "Disassembly view"). It is read-only: no
// breakpoints, no stepping, no source maps.
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
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
		disassembleTree(stdio, fn)
	}
	return nil
}

func disassembleTree(stdio mainer.Stdio, fn *value.ObjFunction) {
	fn.Chunk.Disassemble(stdio.Stdout, fn.String())
	for _, k := range fn.Chunk.Constants {
		if nested, ok := k.(*value.ObjFunction); ok {
			disassembleTree(stdio, nested)
		}
	}
}
