//go:build windows

// Package process terminates browser process trees.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup force-kills pid and its descendants with taskkill.
// Errors are ignored: the launcher's own Kill runs afterwards.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
