package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

// TestEBNF validates that lox.ebnf is well-formed and that every production
// reachable from Program is defined, the same check the teacher's own
// grammar_test.go runs against its own .ebnf files.
func TestEBNF(t *testing.T) {
	f, err := os.Open("lox.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("lox.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}
