// Package process provides OS process liveness checks.
package process

import (
	"os"
	"syscall"
)

// IsAlive reports whether a process with the given PID is still running.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// FindProcess never fails on Unix.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence without delivering a signal. EPERM
	// means the process exists but belongs to someone else.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
