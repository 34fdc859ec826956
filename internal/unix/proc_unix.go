//go:build linux || darwin

// Package unix provides platform-specific process control.
package unix

import "syscall"

// SysProcAttr places the child in its own process group so the whole tree
// can be signalled at once.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// KillGroup sends SIGKILL to the process group led by pid.
func KillGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
