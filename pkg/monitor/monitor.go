package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcp-tool-service/pkg/logging"
)

// DefaultDebounceDelay coalesces the burst of events an editor produces
// when saving a file
const DefaultDebounceDelay = 500 * time.Millisecond

// FileEvent describes a settled change to the watched file
type FileEvent struct {
	Type string // "create", "modify" or "delete"
	Path string
}

// FileMonitor watches a single file for changes. The file's directory is
// watched rather than the file itself so that editors which save by
// renaming a temporary file over it are still observed.
type FileMonitor struct {
	watcher       *fsnotify.Watcher
	path          string
	debounceDelay time.Duration
	logger        *logging.StructuredLogger
}

// NewFileMonitor creates a monitor for the file at path
func NewFileMonitor(path string, logger *logging.StructuredLogger) (*FileMonitor, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(absPath), err)
	}

	return &FileMonitor{
		watcher:       watcher,
		path:          absPath,
		debounceDelay: DefaultDebounceDelay,
		logger:        logger,
	}, nil
}

// SetDebounceDelay changes how long events must settle before the callback runs
func (fm *FileMonitor) SetDebounceDelay(d time.Duration) {
	fm.debounceDelay = d
}

// Path returns the absolute path of the watched file
func (fm *FileMonitor) Path() string {
	return fm.path
}

// Run delivers debounced events for the watched file to callback until ctx
// is cancelled or the monitor is closed. The callback runs on Run's
// goroutine, one event at a time.
func (fm *FileMonitor) Run(ctx context.Context, callback func(FileEvent)) error {
	defer fm.watcher.Close()

	var (
		pending *FileEvent
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fm.watcher.Events:
			if !ok {
				return nil
			}

			fileEvent, relevant := fm.convert(event)
			if !relevant {
				continue
			}
			pending = &fileEvent

			if timer == nil {
				timer = time.NewTimer(fm.debounceDelay)
			} else {
				timer.Reset(fm.debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if pending == nil {
				continue
			}

			event := *pending
			pending = nil

			if fm.logger != nil {
				fm.logger.LogFileSystemEvent(event.Type, event.Path, nil)
			}
			callback(event)

		case err, ok := <-fm.watcher.Errors:
			if !ok {
				return nil
			}
			if fm.logger != nil {
				fm.logger.WithError(err).Warn("File watcher error")
			}
		}
	}
}

// Close stops the monitor; a running Run returns
func (fm *FileMonitor) Close() error {
	return fm.watcher.Close()
}

// convert maps an fsnotify event on the watched file to a FileEvent
func (fm *FileMonitor) convert(event fsnotify.Event) (FileEvent, bool) {
	if filepath.Clean(event.Name) != fm.path {
		return FileEvent{}, false
	}

	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eventType = "delete"
	default:
		return FileEvent{}, false
	}

	return FileEvent{Type: eventType, Path: fm.path}, true
}
