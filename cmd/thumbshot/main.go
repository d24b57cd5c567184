package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-thumbshot/internal/source"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdCapture = "capture"
	cmdBatch   = "batch"
	cmdProbe   = "probe"
	cmdDoctor  = "doctor"
	cmdVersion = "version"
	cmdHelp    = "help"
)

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a command and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case cmdCapture, cmdBatch:
		return runCaptureCmd(cmd, rest, env)
	case cmdProbe:
		runProbe(env)
		return ExitSuccess
	case cmdDoctor:
		return runDoctorCmd(rest, env)
	case cmdCompletion:
		return runCompletion(rest, env)
	case cmdVersion, "--version":
		fmt.Fprintf(env.Stdout, "thumbshot %s\n", Version)
		return ExitSuccess
	case cmdHelp, "-h", "--help":
		return runHelp(rest, env)
	}

	// "thumbshot page.html" is short for "thumbshot capture page.html".
	if looksLikeInput(cmd) {
		return runCaptureCmd(cmdCapture, args[1:], env)
	}
	fmt.Fprintf(env.Stderr, "%v: %s\n\n", ErrUnknownCommand, cmd)
	printUsage(env.Stderr)
	return ExitUsage
}

// runCaptureCmd parses flags, sets up logging and signals, and runs the
// capture or batch command.
func runCaptureCmd(cmd string, args []string, env *Environment) int {
	f, positional, err := parseCaptureFlags(cmd, args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	logger := newLogger(env.Stderr, f.common)
	setMaxProcs(logger)
	warnUnknownEnvVars(env.Stderr)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	run := runCapture
	if cmd == cmdBatch {
		run = runBatchCmd
	}
	if err := run(ctx, positional, f, env, logger); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// looksLikeInput reports whether arg names a document or a directory.
func looksLikeInput(arg string) bool {
	if source.Supported(arg) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}
