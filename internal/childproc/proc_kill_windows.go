//go:build windows
// +build windows

package childproc

import (
	"os"
	"syscall"
)

// signalProcessTree attempts to kill the process. Windows lacks a simple
// process group signal equivalent, so graceful termination collapses to the
// same hard kill; the supervisor's 5s grace window still elapses once before
// the second call, giving a well-behaved child every chance to have already
// exited on its own.
func signalProcessTree(p *os.Process, _ syscall.Signal) error {
	return p.Kill()
}
