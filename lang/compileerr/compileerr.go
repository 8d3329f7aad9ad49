// Package compileerr defines the compiler's diagnostic type. Scanner errors
// reach it as ILLEGAL tokens, which the compiler reports here. Unlike a runtime error, a compile error carries no call stack: it
// is reported against a single source line and compilation keeps going after
// it (panic-mode synchronization), collecting every diagnostic it can find.
package compileerr

import (
	"fmt"
	"strings"
)

// An Error is a single compile-time diagnostic.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// A List collects every Error seen while compiling one chunk. The zero value
// is ready to use.
type List struct {
	errs []*Error
}

// Add appends a new diagnostic.
func (l *List) Add(line int, format string, args ...interface{}) {
	l.errs = append(l.errs, &Error{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// Len reports how many diagnostics have been recorded.
func (l *List) Len() int { return len(l.errs) }

// Err returns nil if the list is empty, else the list itself as an error.
func (l *List) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Unwrap lets the list participate in errors.Is/As chains, like the standard
// library's go/scanner.ErrorList that the teacher's scanner package reuses.
func (l *List) Unwrap() []error {
	errs := make([]error, len(l.errs))
	for i, e := range l.errs {
		errs[i] = e
	}
	return errs
}

func (l *List) Error() string {
	switch len(l.errs) {
	case 0:
		return "no errors"
	case 1:
		return l.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (and %d more errors)", l.errs[0], len(l.errs)-1)
	return b.String()
}

// All returns every recorded diagnostic, in the order they were added.
func (l *List) All() []*Error { return l.errs }
