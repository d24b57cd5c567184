package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-thumbshot/internal/assets"
)

const cmdCompletion = "completion"

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota
	flagBool
	flagNumber
	flagEnum
	flagFile
	flagDir
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string
	Short  string
	Type   flagType
	Desc   string
	Values []string // enum values
	Globs  []string // file extensions, without dot
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	Args  []string // positional values; nil with Files for documents
	Files bool     // takes documents or directories
}

// completionMeta holds completion hints the FlagSet cannot express.
type completionMeta struct {
	Values []string
	Globs  []string
	IsDir  bool
}

// documentGlobs are the input extensions, mirrored from source.Extensions.
var documentGlobs = []string{"html", "htm", "md", "markdown"}

func flagCompletionMeta() map[string]completionMeta {
	return map[string]completionMeta{
		"format": {Values: []string{"webp", "jpeg", "png"}},
		"preset": {Values: []string{"thumbnail", "full"}},
		"style":  {Values: assets.StyleNames()},
		"config": {Globs: []string{"yaml", "yml"}},
		"output": {IsDir: true},
	}
}

// extractFlags reads flag definitions from fs, enriched with
// flagCompletionMeta.
func extractFlags(fs *flag.FlagSet) []flagDef {
	meta := flagCompletionMeta()
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}
		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "float64":
			fd.Type = flagNumber
		default:
			fd.Type = flagString
		}

		if m, ok := meta[f.Name]; ok {
			switch {
			case len(m.Values) > 0:
				fd.Type, fd.Values = flagEnum, m.Values
			case len(m.Globs) > 0:
				fd.Type, fd.Globs = flagFile, m.Globs
			case m.IsDir:
				fd.Type = flagDir
			}
		}
		flags = append(flags, fd)
	})
	return flags
}

// getCommands returns the command registry. Capture and batch flags come
// from the FlagSets the commands parse with.
func getCommands() []commandDef {
	captureSet, _ := newCaptureFlagSet(cmdCapture)
	batchSet, _ := newCaptureFlagSet(cmdBatch)
	shells := []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)}

	return []commandDef{
		{Name: cmdCapture, Desc: "Capture one element per document", Flags: extractFlags(captureSet), Files: true},
		{Name: cmdBatch, Desc: "Capture every element matching a selector", Flags: extractFlags(batchSet), Files: true},
		{Name: cmdProbe, Desc: "Show supported image formats"},
		{Name: cmdDoctor, Desc: "Check Chrome and the environment", Flags: []flagDef{{Long: "json", Type: flagBool, Desc: "JSON output"}}},
		{Name: cmdVersion, Desc: "Show version information"},
		{Name: cmdHelp, Desc: "Show help for a command", Args: []string{cmdCapture, cmdBatch, cmdProbe, cmdDoctor, cmdVersion, cmdCompletion}},
		{Name: cmdCompletion, Desc: "Generate shell completion script", Args: shells},
	}
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	var b strings.Builder
	switch shell {
	case ShellBash:
		writeBash(&b, cmds)
	case ShellZsh:
		writeZsh(&b, cmds)
	case ShellFish:
		writeFish(&b, cmds)
	case ShellPowerShell:
		writePowerShell(&b, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) int {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return ExitSuccess
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	return ExitSuccess
}

func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: thumbshot completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a completion script for bash, zsh, fish or powershell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:        eval \"$(thumbshot completion bash)\" in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:         eval \"$(thumbshot completion zsh)\" in ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  Fish:        thumbshot completion fish > ~/.config/fish/completions/thumbshot.fish")
	fmt.Fprintln(w, "  PowerShell:  thumbshot completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func writeBash(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# bash completion for thumbshot\nshopt -s extglob\n\n")
	b.WriteString("_thumbshot_completions() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	fmt.Fprintf(b, "    if [[ $COMP_CWORD -eq 1 ]]; then\n        COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n        return\n    fi\n\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "        %s)\n", c.Name)
		if valued := flagsWithValues(c.Flags); len(valued) > 0 {
			b.WriteString("            case \"$prev\" in\n")
			for _, f := range valued {
				fmt.Fprintf(b, "                %s) %s; return ;;\n", strings.Join(flagNames(f), "|"), bashValue(f))
			}
			b.WriteString("            esac\n")
		}
		if len(c.Flags) > 0 {
			var names []string
			for _, f := range c.Flags {
				names = append(names, flagNames(f)...)
			}
			fmt.Fprintf(b, "            if [[ $cur == -* ]]; then\n                COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n                return\n            fi\n", strings.Join(names, " "))
		}
		switch {
		case c.Files:
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"$cur\") $(compgen -d -- \"$cur\") )\n", strings.Join(documentGlobs, "|"))
		case len(c.Args) > 0:
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(c.Args, " "))
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n}\n\ncomplete -F _thumbshot_completions thumbshot\n")
}

func bashValue(f flagDef) string {
	switch f.Type {
	case flagEnum:
		return fmt.Sprintf("COMPREPLY=( $(compgen -W %q -- \"$cur\") )", strings.Join(f.Values, " "))
	case flagFile:
		return fmt.Sprintf("COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"$cur\") )", strings.Join(f.Globs, "|"))
	default:
		return "COMPREPLY=( $(compgen -d -- \"$cur\") )"
	}
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func writeZsh(b *strings.Builder, cmds []commandDef) {
	b.WriteString("#compdef thumbshot\n\n_thumbshot() {\n    local -a commands\n    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n    if (( CURRENT == 2 )); then\n        _describe 'command' commands\n        return\n    fi\n\n")
	b.WriteString("    local cmd=${words[2]}\n    shift words\n    (( CURRENT-- ))\n\n    case $cmd in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "        %s)\n            _arguments", c.Name)
		for _, f := range c.Flags {
			fmt.Fprintf(b, " \\\n                %s", zshFlag(f))
		}
		switch {
		case c.Files:
			fmt.Fprintf(b, " \\\n                '*:input:_files -g \"*.(%s)\"'", strings.Join(documentGlobs, "|"))
		case len(c.Args) > 0:
			fmt.Fprintf(b, " \\\n                '1:argument:(%s)'", strings.Join(c.Args, " "))
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n}\n\ncompdef _thumbshot thumbshot\n")
}

func zshFlag(f flagDef) string {
	desc := "[" + zshEscape(f.Desc) + "]"
	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = ":" + f.Long + ":(" + strings.Join(f.Values, " ") + ")"
	case flagFile:
		action = ":" + f.Long + ":_files -g \"*.(" + strings.Join(f.Globs, "|") + ")\""
	case flagDir:
		action = ":" + f.Long + ":_files -/"
	default:
		action = ":" + f.Long + ":"
	}
	if f.Short == "" {
		return "'--" + f.Long + desc + action + "'"
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'%s%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func zshEscape(s string) string {
	return strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:").Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func writeFish(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# fish completion for thumbshot\n\n")
	b.WriteString("function __fish_thumbshot_needs_command\n    test (count (commandline -opc)) -eq 1\nend\n\n")
	b.WriteString("function __fish_thumbshot_using_command\n    set -l cmd (commandline -opc)\n    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\nend\n\n")
	b.WriteString("complete -c thumbshot -f\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "complete -c thumbshot -n __fish_thumbshot_needs_command -a %s -d %s\n", c.Name, fishQuote(c.Desc))
	}
	for _, c := range cmds {
		cond := fishQuote("__fish_thumbshot_using_command " + c.Name)
		for _, f := range c.Flags {
			fmt.Fprintf(b, "complete -c thumbshot -n %s", cond)
			if f.Short != "" {
				fmt.Fprintf(b, " -s %s", f.Short)
			}
			fmt.Fprintf(b, " -l %s", f.Long)
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(b, " -xa %s", fishQuote(strings.Join(f.Values, " ")))
			case flagFile:
				b.WriteString(" -rF")
			case flagDir:
				b.WriteString(" -xa '(__fish_complete_directories)'")
			default:
				b.WriteString(" -r")
			}
			fmt.Fprintf(b, " -d %s\n", fishQuote(f.Desc))
		}
		switch {
		case c.Files:
			fmt.Fprintf(b, "complete -c thumbshot -n %s -F\n", cond)
		case len(c.Args) > 0:
			fmt.Fprintf(b, "complete -c thumbshot -n %s -xa %s\n", cond, fishQuote(strings.Join(c.Args, " ")))
		}
	}
}

func fishQuote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s) + "'"
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func writePowerShell(b *strings.Builder, cmds []commandDef) {
	b.WriteString("Register-ArgumentCompleter -Native -CommandName thumbshot -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        %s = %s\n", psQuote(c.Name), psQuote(c.Desc))
	}
	b.WriteString("    }\n    $flags = @{\n")
	for _, c := range cmds {
		var names []string
		for _, f := range c.Flags {
			names = append(names, psQuote("--"+f.Long))
		}
		for _, a := range c.Args {
			names = append(names, psQuote(a))
		}
		fmt.Fprintf(b, "        %s = @(%s)\n", psQuote(c.Name), strings.Join(names, ", "))
	}
	b.WriteString("    }\n    $values = @{\n")
	for _, c := range cmds {
		for _, f := range c.Flags {
			if f.Type != flagEnum {
				continue
			}
			var vals []string
			for _, v := range f.Values {
				vals = append(vals, psQuote(v))
			}
			for _, n := range flagNames(f) {
				fmt.Fprintf(b, "        %s = @(%s)\n", psQuote(c.Name+" "+n), strings.Join(vals, ", "))
			}
		}
	}
	b.WriteString("    }\n\n")
	b.WriteString(`    $complete = {
        param($items)
        $items | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }

    if ($elements.Count -lt 2 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {
        & $complete $commands.Keys
        return
    }

    $cmd = $elements[1]
    $prev = if ($wordToComplete -ne '') { $elements[-2] } else { $elements[-1] }
    $key = "$cmd $prev"
    if ($values.ContainsKey($key)) {
        & $complete $values[$key]
        return
    }
    if ($flags.ContainsKey($cmd)) {
        & $complete $flags[$cmd]
    }
}
`)
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

func flagNames(f flagDef) []string {
	if f.Short == "" {
		return []string{"--" + f.Long}
	}
	return []string{"-" + f.Short, "--" + f.Long}
}

// flagsWithValues returns the flags whose value the shell can complete.
func flagsWithValues(flags []flagDef) []flagDef {
	var out []flagDef
	for _, f := range flags {
		if f.Type == flagEnum || f.Type == flagFile || f.Type == flagDir {
			out = append(out, f)
		}
	}
	return out
}
