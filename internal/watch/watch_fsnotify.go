package watch

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWatcher implements Watcher using fsnotify for OS-native notifications.
type FSNotifyWatcher struct {
	w   *fsnotify.Watcher
	evC chan Event
	erC chan error

	done      chan struct{} // closed by Close
	closeOnce sync.Once
	exited    chan struct{} // closed when the pump goroutine returns
}

// NewFSWatcher creates a new FSNotifyWatcher.
func NewFSWatcher() (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &FSNotifyWatcher{
		w:      w,
		evC:    make(chan Event, 128),
		erC:    make(chan error, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func (fw *FSNotifyWatcher) loop() {
	defer close(fw.exited)
	defer close(fw.evC)
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			// Nobody may be reading once Loop has returned.
			select {
			case fw.evC <- Event{Path: ev.Name, Op: convertOp(ev.Op)}:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default: // an earlier error is still pending
			}
		}
	}
}

func convertOp(in fsnotify.Op) Op {
	var op Op
	if in.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if in.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if in.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if in.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if in.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

func (fw *FSNotifyWatcher) Events() <-chan Event     { return fw.evC }
func (fw *FSNotifyWatcher) Errors() <-chan error     { return fw.erC }
func (fw *FSNotifyWatcher) Add(name string) error    { return fw.w.Add(name) }
func (fw *FSNotifyWatcher) Remove(name string) error { return fw.w.Remove(name) }

// Close stops the watcher and its event pump, even when events are no
// longer being read.
func (fw *FSNotifyWatcher) Close() error {
	fw.closeOnce.Do(func() { close(fw.done) })
	return fw.w.Close()
}
