package main

// Notes:
// - Scripts are checked for content markers only; running them needs the
//   target shells.

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion - Script generation
// ---------------------------------------------------------------------------

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell Shell
		want  []string
	}{
		{ShellBash, []string{"_thumbshot_completions", "complete -F", "--selector", "--id-attr", `compgen -W "webp jpeg png"`, "@(html|htm|md|markdown)"}},
		{ShellZsh, []string{"#compdef thumbshot", "_describe", "'(-f --format)'{-f,--format}", ":format:(webp jpeg png)", "{-o,--output}'[output directory]:output:_files -/'"}},
		{ShellFish, []string{"complete -c thumbshot", "__fish_thumbshot_using_command batch", "-l id-attr", "-s s -l selector -r"}},
		{ShellPowerShell, []string{"Register-ArgumentCompleter", "-CommandName thumbshot", "CompletionResult", "'capture -f' = @('webp', 'jpeg', 'png')"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.shell), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("GenerateCompletion(%q) error = %v", tt.shell, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("%s script missing %q", tt.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	for _, shell := range []Shell{"", "sh", "ksh"} {
		err := GenerateCompletion(&bytes.Buffer{}, shell)
		if !errors.Is(err, ErrUnsupportedShell) {
			t.Errorf("GenerateCompletion(%q) error = %v, want ErrUnsupportedShell", shell, err)
		}
	}
}

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"usage", nil, ExitSuccess, "Usage: thumbshot completion", ""},
		{"bash", []string{"bash"}, ExitSuccess, "_thumbshot_completions", ""},
		{"invalid", []string{"tcsh"}, ExitUsage, "", "unsupported shell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr := testEnv(nil)
			if code := runCompletion(tt.args, env); code != tt.wantCode {
				t.Errorf("runCompletion() = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) || !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stdout = %q, stderr = %q", stdout.String(), stderr.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGetCommands - Command registry
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	cmds := map[string]commandDef{}
	for _, c := range getCommands() {
		cmds[c.Name] = c
	}
	for _, name := range []string{cmdCapture, cmdBatch, cmdProbe, cmdDoctor, cmdVersion, cmdHelp, cmdCompletion} {
		if _, ok := cmds[name]; !ok {
			t.Errorf("missing command %q", name)
		}
	}

	flags := func(cmd string) map[string]flagDef {
		m := map[string]flagDef{}
		for _, f := range cmds[cmd].Flags {
			m[f.Long] = f
		}
		return m
	}
	capture, batch := flags(cmdCapture), flags(cmdBatch)

	tests := []struct {
		name      string
		wantShort string
		wantType  flagType
	}{
		{"output", "o", flagDir},
		{"config", "c", flagFile},
		{"format", "f", flagEnum},
		{"preset", "", flagEnum},
		{"quiet", "q", flagBool},
		{"workers", "w", flagNumber},
		{"selector", "s", flagString},
	}
	for _, tt := range tests {
		f, ok := capture[tt.name]
		if !ok {
			t.Errorf("capture is missing --%s", tt.name)
			continue
		}
		if f.Short != tt.wantShort || f.Type != tt.wantType {
			t.Errorf("--%s = (%q, %v), want (%q, %v)", tt.name, f.Short, f.Type, tt.wantShort, tt.wantType)
		}
	}

	if _, ok := batch["workers"]; ok {
		t.Error("batch completes --workers")
	}
	if _, ok := batch["pacing"]; !ok {
		t.Error("batch is missing --pacing")
	}
	if !cmds[cmdCapture].Files || cmds[cmdProbe].Files {
		t.Error("only document commands should complete files")
	}
}
