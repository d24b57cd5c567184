// Package hints provides actionable hints appended to CLI error messages,
// formatted as "\n  hint: <text>".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-thumbshot/internal/fileutil"
)

// IsInContainer reports whether the process runs in a container. Docker
// creates /.dockerenv; THUMBSHOT_CONTAINER covers other runtimes.
var IsInContainer = func() bool {
	return os.Getenv("THUMBSHOT_CONTAINER") != "" || fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect suggests the environment variables that usually fix a
// failed Chrome launch.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "true" {
		hints = append(hints, "set ROD_NO_SANDBOX=true for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a custom Chrome")
	}
	return formatHints(hints)
}

// ForAttach explains how to expose a running browser for --attach.
func ForAttach() string {
	return format("start Chrome with --remote-debugging-port=9222 and pass --attach http://127.0.0.1:9222")
}

// ForPageNotFound suggests how to pick a tab of an attached browser.
func ForPageNotFound() string {
	return format("--page matches a substring of the tab URL; omit it to use the first open tab")
}

// ForElementNotFound suggests checking the selector.
func ForElementNotFound(selector string) string {
	return format("no element matches " + selector + "; check --selector or THUMBSHOT_SELECTOR")
}

// ForUnreadableContent explains why an image blocked the capture.
func ForUnreadableContent() string {
	return format("images must load without errors; cross-origin images need CORS headers")
}

// ForTimeout suggests raising the render timeout.
func ForTimeout() string {
	return format("for heavy pages, raise --timeout or THUMBSHOT_TIMEOUT")
}

// ForConfigNotFound suggests --config and, when one of the searched paths
// is in the user config directory, creating the file there.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "go-thumbshot/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound lists the available styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
