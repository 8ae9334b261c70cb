//go:build linux || darwin

package childproc

import (
	"syscall"
)

// setpgidAttr puts the child in its own process group so signalProcessTree
// can reach the whole tree with a single negative-pid signal.
func setpgidAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
