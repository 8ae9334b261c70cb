//go:build darwin
// +build darwin

package childproc

import (
	"os"
	"syscall"
)

// signalProcessTree delivers sig to the entire process group on macOS.
func signalProcessTree(p *os.Process, sig syscall.Signal) error {
	return syscall.Kill(-p.Pid, sig)
}
