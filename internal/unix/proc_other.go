//go:build !linux && !darwin

// Package unix provides platform-specific process control.
package unix

import (
	"errors"
	"syscall"
)

// ErrUnsupported is returned where process groups are unavailable.
var ErrUnsupported = errors.New("process groups not supported on this platform")

// SysProcAttr returns nil; children share the caller's process group.
func SysProcAttr() *syscall.SysProcAttr {
	return nil
}

// KillGroup is not supported on this platform.
func KillGroup(int) error {
	return ErrUnsupported
}
