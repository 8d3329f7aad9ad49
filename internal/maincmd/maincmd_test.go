package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
)

func stdioWith(stdin string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
	}, &out, &errOut
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script.lox")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSuccessExitsZero(t *testing.T) {
	path := writeScript(t, `print 1 + 2;`)
	c := &Cmd{}
	stdio, out, _ := stdioWith("")
	code := c.Main([]string{"loxvm", path}, stdio)
	if code != mainer.Success {
		t.Fatalf("got exit code %v", code)
	}
	if out.String() != "3\n" {
		t.Fatalf("got stdout %q", out.String())
	}
}

func TestRunCompileErrorExits65(t *testing.T) {
	path := writeScript(t, `var = ;`)
	c := &Cmd{}
	stdio, _, errOut := stdioWith("")
	code := c.Main([]string{"loxvm", path}, stdio)
	if code != 65 {
		t.Fatalf("got exit code %v", code)
	}
	if errOut.Len() == 0 {
		t.Fatal("expected a diagnostic on stderr")
	}
}

func TestRunRuntimeErrorExits70(t *testing.T) {
	path := writeScript(t, `print undefined_global;`)
	c := &Cmd{}
	stdio, _, errOut := stdioWith("")
	code := c.Main([]string{"loxvm", path}, stdio)
	if code != 70 {
		t.Fatalf("got exit code %v", code)
	}
	if !strings.Contains(errOut.String(), "Undefined variable") {
		t.Fatalf("got stderr %q", errOut.String())
	}
}

func TestReplPersistsGlobalsAndSurvivesRuntimeError(t *testing.T) {
	c := &Cmd{}
	stdio, out, _ := stdioWith("var x = 40;\nprint x + undefined_thing;\nprint x + 2;\n")
	code := c.Main([]string{"loxvm"}, stdio)
	if code != mainer.Success {
		t.Fatalf("got exit code %v, REPL should never fail the process on a runtime error", code)
	}
	if !strings.Contains(out.String(), "42") {
		t.Fatalf("got stdout %q, want the REPL to keep running after the runtime error on line 2", out.String())
	}
}

func TestTokenizeCommand(t *testing.T) {
	path := writeScript(t, `var x = 1;`)
	c := &Cmd{}
	stdio, out, _ := stdioWith("")
	code := c.Main([]string{"loxvm", "tokenize", path}, stdio)
	if code != mainer.Success {
		t.Fatalf("got exit code %v", code)
	}
	if !strings.Contains(out.String(), "identifier") {
		t.Fatalf("got %q", out.String())
	}
}

func TestDisasmCommand(t *testing.T) {
	path := writeScript(t, `print 1 + 2;`)
	c := &Cmd{}
	stdio, out, _ := stdioWith("")
	code := c.Main([]string{"loxvm", "disasm", path}, stdio)
	if code != mainer.Success {
		t.Fatalf("got exit code %v", code)
	}
	if !strings.Contains(out.String(), "OP_ADD") {
		t.Fatalf("got %q", out.String())
	}
}

func TestHelpAndVersion(t *testing.T) {
	c := &Cmd{BuildVersion: "1.0.0", BuildDate: "2026-01-01"}
	stdio, out, _ := stdioWith("")
	if code := c.Main([]string{"loxvm", "--help"}, stdio); code != mainer.Success {
		t.Fatalf("got exit code %v", code)
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Fatalf("got %q", out.String())
	}

	stdio, out, _ = stdioWith("")
	if code := c.Main([]string{"loxvm", "--version"}, stdio); code != mainer.Success {
		t.Fatalf("got exit code %v", code)
	}
	if !strings.Contains(out.String(), "1.0.0") {
		t.Fatalf("got %q", out.String())
	}
}
