package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: thumbshot <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  capture    Capture one element per HTML or Markdown document")
	fmt.Fprintln(w, "  batch      Capture every element matching a selector")
	fmt.Fprintln(w, "  probe      Show supported image formats")
	fmt.Fprintln(w, "  doctor     Check Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'thumbshot help <command>' for details on a specific command.")
}

// printCommandUsage prints usage for capture or batch.
func printCommandUsage(w io.Writer, cmd string) {
	if cmd == cmdBatch {
		fmt.Fprintln(w, "Usage: thumbshot batch <input> --selector <css> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Capture every element matching the selector in one document, one after")
		fmt.Fprintln(w, "another. Items are named by --id-attr, then id; a failed item does not")
		fmt.Fprintln(w, "stop the batch. A summary is written to <name>.batch.yaml.")
	} else {
		fmt.Fprintln(w, "Usage: thumbshot capture <input> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Capture the element matching --selector in each document. Writes")
		fmt.Fprintln(w, "<name>.<format>, <name>.fallback.jpg and <name>.yaml.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML or Markdown file, or a directory for capture")
	fmt.Fprintln(w, "           (optional with --attach or input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -s, --selector <css>      Element to capture (default: body)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to input)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	if cmd == cmdBatch {
		fmt.Fprintln(w, "      --pacing <d>          Delay between items (default: 100ms)")
		fmt.Fprintln(w, "      --id-attr <name>      Attribute naming items (default: data-id)")
	} else {
		fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	}
	fmt.Fprintln(w, "      --style <name>        Style for Markdown input")
	fmt.Fprintln(w, "      --no-metadata         Skip the metadata file")
	fmt.Fprintln(w, "      --no-fallback         Skip the JPEG fallback file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Size:")
	fmt.Fprintln(w, "      --preset <s>          thumbnail (600x800) or full (800x1131)")
	fmt.Fprintln(w, "      --width <n>           Output width in CSS pixels")
	fmt.Fprintln(w, "      --height <n>          Output height in CSS pixels")
	fmt.Fprintln(w, "      --native-width <n>    Native template width (default: 800)")
	fmt.Fprintln(w, "      --native-height <n>   Native template height (default: 1131)")
	fmt.Fprintln(w, "  -m, --magnification <f>   Pixels per CSS pixel (default: 2, max 8)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Look:")
	fmt.Fprintln(w, "  -f, --format <s>          webp, jpeg or png (default: webp)")
	fmt.Fprintln(w, "      --quality <f>         Lossy quality 0.0-1.0 (default: 0.92)")
	fmt.Fprintln(w, "      --background <color>  Background color (default: #ffffff)")
	fmt.Fprintln(w, "      --padding <css>       Padding around the element")
	fmt.Fprintln(w, "      --glass               Glass panel look")
	fmt.Fprintln(w, "      --shadows             Soft drop shadow")
	fmt.Fprintln(w, "      --reflection          Mirrored reflection")
	fmt.Fprintln(w, "      --isolate             Capture an off-screen clone")
	fmt.Fprintln(w, "      --wrap                Wrap the element while capturing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --attach <url>        DevTools URL of a running browser")
	fmt.Fprintln(w, "      --page <s>            URL substring of the tab to capture")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (default: 30s)")
	fmt.Fprintln(w, "      --settle <d>          Delay before rendering (default: 200ms)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging and timings")
}

// runHelp prints help for a command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdCapture, cmdBatch:
		printCommandUsage(env.Stdout, args[0])
	case cmdProbe:
		fmt.Fprintln(env.Stdout, "Usage: thumbshot probe")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show which image formats this build can encode.")
	case cmdDoctor:
		fmt.Fprintln(env.Stdout, "Usage: thumbshot doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, encoders, the environment and the temp directory.")
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: thumbshot version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdCompletion:
		printCompletionUsage(env.Stdout)
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: thumbshot help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "%v: %s\n\n", ErrUnknownCommand, args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
