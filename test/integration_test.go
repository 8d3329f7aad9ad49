// Package test holds golden-program integration tests: each fixture under
// testdata/ is a complete Lox program, compiled and run exactly as the CLI's
// `run` command would, with its stdout and any compile/runtime error
// compared against recorded golden files (spec §8 "Scenarios", and the
// quantified invariants above it).
package test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/loxvm/internal/filetest"
	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/machine"
)

var update = flag.Bool("test.update-tests", false, "update the golden .want/.err files for testdata/*.lox")

const testdataDir = "testdata"

func TestScripts(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, testdataDir, ".lox") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(testdataDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			h := heap.New()
			fn, cerr := compiler.Compile(h, string(src))

			var stdout bytes.Buffer
			var errText string
			switch {
			case cerr != nil:
				errText = cerr.Error()
			default:
				th := machine.NewThread(h)
				th.Stdout = &stdout
				if rerr := th.Run(fn); rerr != nil {
					errText = rerr.Error()
				}
			}

			filetest.DiffOutput(t, fi, stdout.String(), testdataDir, update)
			filetest.DiffErrors(t, fi, errText, testdataDir, update)
		})
	}
}

// TestDeterminismAndIdempotency checks spec §8's first quantified invariant:
// running the same error-free program twice, on two independent heaps,
// produces byte-identical stdout.
func TestDeterminismAndIdempotency(t *testing.T) {
	const src = `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		for (var i = 0; i < 10; i = i + 1) print fib(i);
	`
	runOnce := func() string {
		h := heap.New()
		fn, err := compiler.Compile(h, src)
		if err != nil {
			t.Fatalf("compile error: %v", err)
		}
		th := machine.NewThread(h)
		var buf bytes.Buffer
		th.Stdout = &buf
		if err := th.Run(fn); err != nil {
			t.Fatalf("run error: %v", err)
		}
		return buf.String()
	}

	first := runOnce()
	second := runOnce()
	if first != second {
		t.Fatalf("non-deterministic output:\nfirst:  %q\nsecond: %q", first, second)
	}
}

// TestStringInterningIdentity checks spec §8's second quantified invariant
// directly against the heap, independent of the == comparison the machine
// itself does for Equal.
func TestStringInterningIdentity(t *testing.T) {
	h := heap.New()
	a := h.Intern("hello, world")
	b := h.Intern("hello" + ", world")
	if a != b {
		t.Fatal("two interned strings with equal bytes must share one object")
	}
}
