//go:build darwin || freebsd || netbsd || openbsd
// +build darwin freebsd netbsd openbsd

package term

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TIOCGETA
