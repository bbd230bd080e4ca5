package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/antbuild/golox/debug"
	"github.com/antbuild/golox/vm"
)

// Exit codes follow the BSD sysexits.h convention the driver reports
// through: usage error, bad input (compile error), internal failure
// (runtime error), and I/O failure.
const (
	exitOK       = 0
	exitUsage    = 64
	exitData     = 65
	exitSoftware = 70
	exitIOErr    = 74
)

// App builds the root cobra command: a verbosity flag wired to logrus
// plus the easy-formatter, and a Run body dispatching to the REPL or a
// script file.
func App() (app *cobra.Command) {
	app = &cobra.Command{
		Use:   "golox [script]",
		Short: "Launch the `golox` interpreter",
		Args:  cobra.ArbitraryArgs,
	}

	app.Flags().SortFlags = true
	defaultVerbosityStr := "INFO"
	verbosity := app.Flags().StringP("verbosity", "v", defaultVerbosityStr, "Logging verbosity")

	app.Run = func(_ *cobra.Command, args []string) {
		verbosityLvl, err := logrus.ParseLevel(*verbosity)
		if err != nil {
			verbosityLvl, _ = logrus.ParseLevel(defaultVerbosityStr)
		}
		logrus.SetLevel(verbosityLvl)
		logrus.SetFormatter(&easy.Formatter{LogFormat: "//DBG// %msg%\n"})
		debug.DEBUG = verbosityLvl >= logrus.DebugLevel

		os.Exit(run(args))
	}
	return
}

// Execute runs the root command; cobra's own usage/flag-parsing failures
// exit 64 ("usage"), matching run's handling of a bad argument count.
func Execute() {
	if err := App().Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

func run(args []string) int {
	switch len(args) {
	case 0:
		return repl()
	case 1:
		return runFile(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [script]\n", filepath.Base(os.Args[0]))
		return exitUsage
	}
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOErr
	}

	switch vm.NewVM().Interpret(string(src)) {
	case vm.StatusOk:
		return exitOK
	case vm.StatusCompileError:
		return exitData
	default:
		return exitSoftware
	}
}

// repl implements the interactive loop: prompt "> ", one line per
// Interpret call, errors reset per-line state but never terminate the
// loop, EOF on stdin ends it cleanly. chzyer/readline gives the REPL
// history/line-editing in place of a raw bufio.Reader.
func repl() int {
	rl, err := readline.New("> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOErr
	}
	defer rl.Close()

	vm_ := vm.NewVM()
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return exitOK
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitOK
		}
		// Errors from Interpret are already reported to stderr by the
		// VM; the REPL just keeps going with the same VM next line, so
		// globals persist while Interpret resets the stack each call.
		vm_.Interpret(line)
	}
}
