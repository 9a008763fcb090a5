// Package term detects whether a file descriptor is an interactive
// terminal. The CLI uses it to pick colored output and to decide
// whether the REPL gets line editing.
package term

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	return isTerminal(fd)
}
