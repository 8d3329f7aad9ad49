// Package maincmd implements the loxvm command-line driver: the external
// collaborator spec.md explicitly keeps out of the interpreter core (spec
// §1, "Deliberately OUT of scope ... the command-line driver that reads a
// file or runs a REPL"). It owns file I/O, exit-code mapping and REPL line
// reading; everything it does funnels into compiler.Compile and
// machine.Thread.Run, neither of which know this package exists.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "loxvm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<script>]
       %[1]s <command> <path>...
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode compiler and virtual machine for the Lox programming language.

With no arguments, starts an interactive REPL. With one argument that is
not one of the commands below, compiles and runs it as a script.

The <command> can be one of:
       run                       Compile and run the given script(s).
       repl                      Start the interactive REPL explicitly.
       tokenize                  Run only the scanner and print the
                                 resulting tokens, one per line.
       disasm                    Compile the given script(s) and print a
                                 disassembly listing of every chunk,
                                 without running them.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the loxvm CLI's command, parsed from argv by mainer.Parser exactly
// as the teacher's internal/maincmd.Cmd is (spec SPEC_FULL §10.3).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool)     {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		c.cmdFn = c.Repl
		return nil
	}

	commands := buildCmds(c)
	cmdName := c.args[0]
	if fn, ok := commands[cmdName]; ok {
		if (cmdName == "tokenize" || cmdName == "disasm" || cmdName == "run") && len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
		c.cmdFn = fn
		return nil
	}

	// Not a known command: treat it as `loxvm <script>`, the canonical
	// single-script invocation (spec §6, "<prog> <file>").
	c.cmdFn = c.Run
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	args = c.args
	if len(args) > 0 {
		if _, ok := buildCmds(c)[args[0]]; ok {
			args = args[1:]
		}
	}
	err := c.cmdFn(ctx, stdio, args)
	return exitCodeFor(err)
}

// exitCodeFor implements spec §6's exit-code mapping: 0 OK, 65
// CompileError, 70 RuntimeError.
func exitCodeFor(err error) mainer.ExitCode {
	switch {
	case err == nil:
		return mainer.Success
	case errors.As(err, new(*compileErrorExit)):
		return 65
	case errors.As(err, new(*runtimeErrorExit)):
		return 70
	default:
		return mainer.Failure
	}
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

// buildCmds mirrors the teacher's reflection-based command dispatch
// (internal/maincmd.buildCmds): any exported method of v matching the
// (context.Context, mainer.Stdio, []string) error shape becomes a command
// named after the lowercased method name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
