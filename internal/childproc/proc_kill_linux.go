//go:build linux
// +build linux

package childproc

import (
	"os"
	"syscall"
)

// signalProcessTree delivers sig to the entire process group on Linux. The
// child is started with Setpgid so killing the group also reaches any
// grandchildren the engine shells out to.
func signalProcessTree(p *os.Process, sig syscall.Signal) error {
	return syscall.Kill(-p.Pid, sig)
}
