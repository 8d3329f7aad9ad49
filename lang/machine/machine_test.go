package machine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/machine"
)

// run compiles and executes src on a fresh heap and thread, returning
// everything written by `print` and any runtime error.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	h := heap.New()
	fn, err := compiler.Compile(h, src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	th := machine.NewThread(h)
	var buf bytes.Buffer
	th.Stdout = &buf
	err = th.Run(fn)
	return buf.String(), err
}

func mustRun(t *testing.T, src string) string {
	t.Helper()
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out
}

func TestArithmeticPrecedenceAndPrint(t *testing.T) {
	out := mustRun(t, `print 1 + 2 * 3;`)
	if out != "7\n" {
		t.Fatalf("got %q", out)
	}
}

func TestStringConcatUsesInternedResult(t *testing.T) {
	out := mustRun(t, `
		var a = "foo" + "bar";
		var b = "foo" + "bar";
		print a == b;
	`)
	if out != "true\n" {
		t.Fatalf("got %q, want string concatenation results to compare equal via interning", out)
	}
}

func TestGlobalDefineGetSet(t *testing.T) {
	out := mustRun(t, `
		var x = 10;
		x = x + 5;
		print x;
	`)
	if out != "15\n" {
		t.Fatalf("got %q", out)
	}
}

func TestLocalsAndBlockScope(t *testing.T) {
	out := mustRun(t, `
		var x = "global";
		{
			var x = "local";
			print x;
		}
		print x;
	`)
	if out != "local\nglobal\n" {
		t.Fatalf("got %q", out)
	}
}

func TestIfElseBranches(t *testing.T) {
	out := mustRun(t, `
		if (1 < 2) print "yes"; else print "no";
		if (2 < 1) print "yes"; else print "no";
	`)
	if out != "yes\nno\n" {
		t.Fatalf("got %q", out)
	}
}

func TestWhileLoop(t *testing.T) {
	out := mustRun(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	if out != "0\n1\n2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestForLoopDesugaring(t *testing.T) {
	out := mustRun(t, `
		for (var i = 0; i < 3; i = i + 1) {
			print i;
		}
	`)
	if out != "0\n1\n2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestClosureCapturesAndMutatesUpvalue(t *testing.T) {
	out := mustRun(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				print i;
			}
			return count;
		}
		var c = makeCounter();
		c();
		c();
		c();
	`)
	if out != "1\n2\n3\n" {
		t.Fatalf("got %q", out)
	}
}

func TestTwoClosuresShareOneUpvalue(t *testing.T) {
	out := mustRun(t, `
		fun makePair() {
			var i = 0;
			fun get() { return i; }
			fun inc() { i = i + 1; }
			inc();
			inc();
			print get();
		}
		makePair();
	`)
	if out != "2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestClassesMethodsAndThis(t *testing.T) {
	out := mustRun(t, `
		class Counter {
			init() {
				this.count = 0;
			}
			increment() {
				this.count = this.count + 1;
				return this.count;
			}
		}
		var c = Counter();
		print c.increment();
		print c.increment();
	`)
	if out != "1\n2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInheritanceAndSuper(t *testing.T) {
	out := mustRun(t, `
		class A {
			greet() {
				return "hello from A";
			}
		}
		class B < A {
			greet() {
				return super.greet() + ", and B";
			}
		}
		print B().greet();
	`)
	if out != "hello from A, and B\n" {
		t.Fatalf("got %q", out)
	}
}

func TestFieldShadowsMethod(t *testing.T) {
	out := mustRun(t, `
		class Box {
			value() { return "method"; }
		}
		var b = Box();
		b.value = "field";
		print b.value;
	`)
	if out != "field\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRuntimeErrorUndefinedGlobal(t *testing.T) {
	_, err := run(t, `print undefined_name;`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Undefined variable") {
		t.Fatalf("got %q", err.Error())
	}
}

func TestRuntimeErrorOperandsMustBeNumbers(t *testing.T) {
	_, err := run(t, `print 1 - "two";`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Operands must be numbers") {
		t.Fatalf("got %q", err.Error())
	}
}

func TestRuntimeErrorTraceNamesEnclosingFunction(t *testing.T) {
	_, err := run(t, `
		fun boom() {
			return 1 + "two";
		}
		boom();
	`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "in boom") {
		t.Fatalf("got %q, want a frame naming the enclosing function", err.Error())
	}
}

func TestRuntimeErrorDoesNotTerminateNextRun(t *testing.T) {
	h := heap.New()
	th := machine.NewThread(h)

	fn, err := compiler.Compile(h, `print oops;`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if err := th.Run(fn); err == nil {
		t.Fatal("expected first run to fail")
	}

	fn2, err := compiler.Compile(h, `print "still alive";`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var buf bytes.Buffer
	th.Stdout = &buf
	if err := th.Run(fn2); err != nil {
		t.Fatalf("second run should succeed after a reset stack, got %v", err)
	}
	if buf.String() != "still alive\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestGlobalsPersistAcrossRunsOnSameThread(t *testing.T) {
	h := heap.New()
	th := machine.NewThread(h)

	fn1, err := compiler.Compile(h, `var x = 1;`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if err := th.Run(fn1); err != nil {
		t.Fatalf("run error: %v", err)
	}

	fn2, err := compiler.Compile(h, `print x + 1;`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var buf bytes.Buffer
	th.Stdout = &buf
	if err := th.Run(fn2); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if buf.String() != "2\n" {
		t.Fatalf("got %q, want the global defined by the first Run to survive into the second", buf.String())
	}
}

func TestGCStressDoesNotCorruptLiveProgram(t *testing.T) {
	h := heap.New()
	h.StressGC = true
	fn, err := compiler.Compile(h, `
		class Node {
			init(value) {
				this.value = value;
			}
		}
		fun sum(n) {
			var total = 0;
			var i = 0;
			while (i < n) {
				var node = Node(i);
				total = total + node.value;
				i = i + 1;
			}
			return total;
		}
		print sum(20);
	`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	th := machine.NewThread(h)
	var buf bytes.Buffer
	th.Stdout = &buf
	if err := th.Run(fn); err != nil {
		t.Fatalf("run error under GC stress: %v", err)
	}
	if buf.String() != "190\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRecursiveFunction(t *testing.T) {
	out := mustRun(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if out != "55\n" {
		t.Fatalf("got %q", out)
	}
}

func TestNativeClockIsCallableAndNumeric(t *testing.T) {
	out := mustRun(t, `
		var t = clock();
		print t > 0;
	`)
	if out != "true\n" {
		t.Fatalf("got %q", out)
	}
}
