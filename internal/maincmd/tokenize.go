package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
	"github.com/mna/mainer"
)

// Tokenize runs only the scanner over each file and prints one token per
// line: its source line, kind, and lexeme. A debug-only surface, scoped the
// same way as the teacher's own tokenize command (spec SPEC_FULL §12
// "Disassembly view").
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		s := scanner.New(string(src))
		for {
			tok := s.Next()
			fmt.Fprintf(stdio.Stdout, "%4d %-16s %q\n", tok.Line, tok.Kind, tok.Lexeme)
			if tok.Kind == token.EOF {
				break
			}
		}
	}
	return nil
}
