package debug

import "fmt"

// DEBUG gates assertion checks and verbose dispatch-loop/disassembly tracing.
// Set at startup by cmd.App from the -v flag (true at debug verbosity or
// above), alongside the logrus level.
var DEBUG = false

func Assertf(b bool, format string, a ...any) {
	if DEBUG && !b {
		panic(fmt.Sprintf(format, a...))
	}
}

func AssertEq[T comparable](expected, got T) { Assertf(expected == got, "%v != %v", expected, got) }
