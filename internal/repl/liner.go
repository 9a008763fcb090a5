package repl

import (
	"os"
	"path/filepath"

	"github.com/peterh/liner"
)

// HistoryFile is the history file name in the user's home directory
const HistoryFile = ".wasmast_history"

// OpenLiner starts terminal line editing with history loaded from
// historyPath. The returned close function saves the history and
// restores the terminal.
func OpenLiner(historyPath string) (*liner.State, func()) {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	return ln, func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
		_ = ln.Close()
	}
}

// DefaultHistoryPath returns the history file in the home directory, or
// in the working directory when home is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return HistoryFile
	}
	return filepath.Join(home, HistoryFile)
}
