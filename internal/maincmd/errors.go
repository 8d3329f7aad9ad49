package maincmd

// compileErrorExit and runtimeErrorExit tag an error as having come from the
// compiler or the machine respectively, so Main can map it to the exit code
// spec §6 requires (65 for a compile error, 70 for a runtime error) without
// the run/disasm/tokenize commands having to know about exit codes
// themselves.
type compileErrorExit struct{ err error }

func (e *compileErrorExit) Error() string { return e.err.Error() }
func (e *compileErrorExit) Unwrap() error { return e.err }

type runtimeErrorExit struct{ err error }

func (e *runtimeErrorExit) Error() string { return e.err.Error() }
func (e *runtimeErrorExit) Unwrap() error { return e.err }
