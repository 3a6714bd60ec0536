package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"mintwatch/internal/logging"
)

// Kind classifies an Event.
type Kind int

const (
	// FolderAppeared reports a new first-level folder.
	FolderAppeared Kind = iota + 1
	// FileAppeared reports a file created or written inside a folder.
	FileAppeared
	// Error reports a watcher failure; Err is set and Path may be empty.
	Error
)

func (k Kind) String() string {
	switch k {
	case FolderAppeared:
		return "folder_appeared"
	case FileAppeared:
		return "file_appeared"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one observation about an inbox folder.
type Event struct {
	Kind Kind
	// Path is the first-level folder the event belongs to.
	Path string
	// Name is the path that triggered the event.
	Name string
	Err  error
}

const eventBuffer = 128

// Watcher observes an inbox directory.
type Watcher struct {
	inbox  string
	logger *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// New constructs a Watcher for inbox.
func New(inbox string, logger *slog.Logger) *Watcher {
	return &Watcher{
		inbox:  filepath.Clean(inbox),
		logger: logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start begins watching and returns the event stream. The stream is closed
// after Stop or when ctx ends. Folders already in the inbox are emitted first.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil, errors.New("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.inbox); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch inbox %s: %w", w.inbox, err)
	}

	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("scan inbox: %w", err)
	}
	initial := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		dir := filepath.Join(w.inbox, entry.Name())
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch inbox folder", logging.String(logging.FieldFolder, entry.Name()), logging.Error(err))
		}
		initial = append(initial, Event{Kind: FolderAppeared, Path: dir, Name: dir})
	}

	events := make(chan Event, eventBuffer)
	w.fsw = fsw
	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true

	go w.loop(ctx, fsw, events, initial, w.quit, w.done)

	w.logger.Info("watcher started",
		logging.String(logging.FieldEventType, "watcher_started"),
		logging.String("inbox", w.inbox),
		logging.Int("existing_folders", len(initial)),
	)
	return events, nil
}

// Stop ends watching and waits for the event stream to close.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.quit)
	_ = w.fsw.Close()
	done := w.done
	w.fsw = nil
	w.quit = nil
	w.running = false
	w.mu.Unlock()

	<-done
	w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event, initial []Event, quit, done chan struct{}) {
	defer close(done)
	defer close(out)
	defer fsw.Close()

	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-quit:
			return false
		case <-ctx.Done():
			return false
		}
	}

	for _, ev := range initial {
		if !emit(ev) {
			return
		}
	}

	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			return
		case raw, ok := <-fsw.Events:
			if !ok {
				return
			}
			ev, ok := w.translate(fsw, raw)
			if !ok {
				continue
			}
			if !emit(ev) {
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if !emit(Event{Kind: Error, Err: err}) {
				return
			}
		}
	}
}

// translate maps a raw notification to a folder event.
func (w *Watcher) translate(fsw *fsnotify.Watcher, raw fsnotify.Event) (Event, bool) {
	if !raw.Has(fsnotify.Create) && !raw.Has(fsnotify.Write) {
		return Event{}, false
	}
	folder, depth, ok := w.attribute(raw.Name)
	if !ok {
		return Event{}, false
	}
	if depth == 1 {
		if !raw.Has(fsnotify.Create) {
			return Event{}, false
		}
		info, err := os.Stat(raw.Name)
		if err != nil || !info.IsDir() {
			return Event{}, false
		}
		if err := fsw.Add(raw.Name); err != nil {
			w.logger.Warn("failed to watch new inbox folder",
				logging.String(logging.FieldFolder, filepath.Base(raw.Name)),
				logging.Error(err),
			)
		}
		return Event{Kind: FolderAppeared, Path: folder, Name: raw.Name}, true
	}
	return Event{Kind: FileAppeared, Path: folder, Name: raw.Name}, true
}

// attribute returns the first-level folder containing name and how deep name
// sits below the inbox. Hidden components anywhere in the path reject it.
func (w *Watcher) attribute(name string) (string, int, bool) {
	rel, err := filepath.Rel(w.inbox, filepath.Clean(name))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", 0, false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts {
		if isHidden(part) {
			return "", 0, false
		}
	}
	return filepath.Join(w.inbox, parts[0]), len(parts), true
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
