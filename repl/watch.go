package repl

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFile arranges for path to be reread every time it changes on
// disk, the way launix-de-memcp/main.go's getWatch lets a running
// session pick up bootstrap-library edits without restarting. It
// loads path once synchronously before returning (so the caller can
// rely on its bindings being present immediately). The filesystem
// watch itself runs in the background, but it never reloads path
// directly: it only signals s.reloads, which RunInteractive drains on
// its own goroutine between forms. §5 requires one VM run on one
// thread sharing no mutable state - a background goroutine calling
// s.LoadFile would compile into and run s.VM over s.H concurrently
// with RunInteractive doing the same, racing the heap's node table
// and every environment's binding map.
func (s *Session) WatchFile(path string) error {
	if err := s.LoadFile(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				// coalesce a burst of events (editors often write,
				// rename, then rewrite) before signaling a reload.
				for drained := false; !drained; {
					time.Sleep(10 * time.Millisecond)
					select {
					case <-watcher.Events:
					default:
						drained = true
					}
				}
				select {
				case s.reloads <- path:
				default:
					// a reload is already pending; it will pick up
					// this change too once the reader gets to it.
				}
				// editors commonly replace the file via rename, which
				// drops the old inode from the watch list.
				watcher.Add(path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(s.Out, "watch: %s: %v\n", path, err)
			}
		}
	}()
	return nil
}
