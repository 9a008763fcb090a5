// Package watch re-runs work when source files change. Bursts of file
// system events are coalesced so that an editor's write-rename-chmod
// sequence triggers a single callback.
package watch

import (
	"context"
	"sort"
	"time"
)

// Op describes a set of file operations
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Event is one file system notification
type Event struct {
	Path string
	Op   Op
}

// Watcher delivers file system events for the paths added to it
type Watcher interface {
	Events() <-chan Event
	Errors() <-chan error
	Add(name string) error
	Remove(name string) error
	Close() error
}

// DefaultDebounce is the quiet period Loop waits for when Options.Debounce
// is zero.
const DefaultDebounce = 100 * time.Millisecond

// Options configures Loop
type Options struct {
	Debounce time.Duration

	// Filter selects the paths that count as changes. Nil accepts all.
	Filter func(path string) bool
}

// Loop adds paths to w and calls onChange with the sorted, de-duplicated
// paths that were created or written, once no further event arrived for
// the debounce period. It returns nil when ctx is done or w stops
// delivering events, and the first error w reports otherwise.
func Loop(ctx context.Context, w Watcher, paths []string, opts Options, onChange func(changed []string)) error {
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return err
		}
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	events, errs := w.Events(), w.Errors()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(OpCreate|OpWrite) == 0 {
				continue
			}
			if opts.Filter != nil && !opts.Filter(ev.Path) {
				continue
			}
			pending[ev.Path] = true
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return err

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			onChange(changed)
		}
	}
}
