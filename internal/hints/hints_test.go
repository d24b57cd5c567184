package hints

// Notes:
// - ForBrowserConnect tests use t.Setenv and swap IsInContainer, so they
//   do not run in parallel.

import (
	"strings"
	"testing"
)

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		env         map[string]string
		wantSandbox bool
		wantBin     bool
	}{
		{name: "ci", env: map[string]string{"CI": "true"}, wantSandbox: true, wantBin: true},
		{name: "docker", container: true, wantSandbox: true, wantBin: true},
		{name: "sandbox already disabled", container: true, env: map[string]string{"ROD_NO_SANDBOX": "true"}, wantBin: true},
		{name: "bin already set", env: map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}},
		{name: "desktop", wantBin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withContainer(t, tt.container)
			for _, key := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN"} {
				t.Setenv(key, tt.env[key])
			}

			hint := ForBrowserConnect()
			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("bin hint = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if !tt.wantSandbox && !tt.wantBin && hint != "" {
				t.Errorf("ForBrowserConnect() = %q, want empty", hint)
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()
	hint := ForConfigNotFound([]string{"thumbs.yaml", "/home/u/.config/go-thumbshot/thumbs.yaml"})
	if !strings.Contains(hint, "--config") || !strings.Contains(hint, "create /home/u/.config/go-thumbshot/thumbs.yaml") {
		t.Errorf("ForConfigNotFound() = %q", hint)
	}
	if hint := ForConfigNotFound(nil); strings.Contains(hint, "create") {
		t.Errorf("ForConfigNotFound(nil) = %q, want no create suggestion", hint)
	}
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()
	if got := ForStyleNotFound(nil); got != "" {
		t.Errorf("ForStyleNotFound(nil) = %q, want empty", got)
	}
	if got := ForStyleNotFound([]string{"dark", "paper"}); !strings.Contains(got, "dark, paper") {
		t.Errorf("ForStyleNotFound() = %q", got)
	}
}

func TestForElementNotFound(t *testing.T) {
	t.Parallel()
	if got := ForElementNotFound("#card"); !strings.Contains(got, "#card") || !strings.Contains(got, "--selector") {
		t.Errorf("ForElementNotFound() = %q", got)
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()
	for _, h := range []string{
		ForAttach(),
		ForPageNotFound(),
		ForUnreadableContent(),
		ForTimeout(),
		ForOutputDirectory(),
		ForElementNotFound("x"),
	} {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}
