package signal

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a custom code file into a Table when it changes on disk.
// A file that fails to parse leaves the previous table in place.
type Watcher struct {
	table *Table
	path  string
	fsw   *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given code file. The parent
// directory is watched so editor rename-and-replace saves are caught.
func NewWatcher(table *Table, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{table: table, path: path, fsw: fsw}, nil
}

// Start begins watching until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer w.fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				w.reload()
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("signal code watcher error", "error", err)
			}
		}
	}()
}

func (w *Watcher) reload() {
	codes, err := LoadFile(w.path)
	if err != nil {
		slog.Warn("signal code file reload failed, keeping previous table", "path", w.path, "error", err)
		return
	}
	if err := w.table.Replace(codes); err != nil {
		slog.Warn("signal code file rejected, keeping previous table", "path", w.path, "error", err)
		return
	}
	slog.Info("signal code table reloaded", "path", w.path, "codes", w.table.Len())
}
