package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"mintwatch/internal/fileutil"
	"mintwatch/internal/logging"
	"mintwatch/internal/services"
)

// MarkerName is the completion marker written into a minted folder.
const MarkerName = ".done"

const maxArchiveSuffix = 10000

// Ledger tracks completed folders. It is safe for concurrent use.
type Ledger struct {
	processedDir string
	logger       *slog.Logger
	now          func() time.Time

	mu   sync.RWMutex
	done map[string]struct{}
}

// New constructs a Ledger archiving into processedDir.
func New(processedDir string, logger *slog.Logger) *Ledger {
	return &Ledger{
		processedDir: processedDir,
		logger:       logging.NewComponentLogger(logger, "ledger"),
		now:          time.Now,
		done:         make(map[string]struct{}),
	}
}

// IsDone reports whether the folder has been minted, either in this process
// or according to its marker file.
func (l *Ledger) IsDone(folderPath string) bool {
	if l.Known(filepath.Base(folderPath)) {
		return true
	}
	_, err := os.Stat(filepath.Join(folderPath, MarkerName))
	return err == nil
}

// Known reports whether name is in the in-memory set.
func (l *Ledger) Known(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.done[name]
	return ok
}

// Remember adds name to the in-memory set without touching disk.
func (l *Ledger) Remember(name string) {
	l.mu.Lock()
	l.done[name] = struct{}{}
	l.mu.Unlock()
}

// Len returns the size of the in-memory set.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.done)
}

// MarkDone writes the completion marker and remembers the folder. Call it only
// after a successful mint.
func (l *Ledger) MarkDone(folderPath string) error {
	l.Remember(filepath.Base(folderPath))
	stamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	if err := fileutil.WriteFileAtomic(filepath.Join(folderPath, MarkerName), []byte(stamp), 0o644); err != nil {
		return services.Wrap(services.ErrCompletion, "completed", "write marker", folderPath, err)
	}
	return nil
}

// MarkedAt returns the timestamp stored in a folder's marker.
func MarkedAt(folderPath string) (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(folderPath, MarkerName))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
}

// Archive moves the folder into the processed root and returns its new path.
// An existing entry is never overwritten; the name gains "_1", "_2", ... until
// a free one is found.
func (l *Ledger) Archive(folderPath string) (string, error) {
	if err := os.MkdirAll(l.processedDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrCompletion, "completed", "ensure processed dir", l.processedDir, err)
	}
	target, err := l.nextArchivePath(filepath.Base(folderPath))
	if err != nil {
		return "", services.Wrap(services.ErrCompletion, "completed", "allocate archive path", folderPath, err)
	}

	renameErr := os.Rename(folderPath, target)
	if renameErr == nil {
		return target, nil
	}
	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return "", services.Wrap(services.ErrCompletion, "completed", "archive", folderPath, renameErr)
	}

	if err := fileutil.CopyTree(folderPath, target); err != nil {
		return "", services.Wrap(services.ErrCompletion, "completed", "copy to processed", folderPath, err)
	}
	if err := os.RemoveAll(folderPath); err != nil {
		logging.WarnWithContext(l.logger, "failed to remove folder after copying to processed", "archive_source_cleanup_failed",
			logging.String(logging.FieldFolder, filepath.Base(folderPath)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the inbox copy by hand; its marker prevents a second mint"),
			logging.String(logging.FieldImpact, "minted folder remains in the inbox"),
		)
	}
	return target, nil
}

func (l *Ledger) nextArchivePath(name string) (string, error) {
	candidate := filepath.Join(l.processedDir, name)
	if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}
	for n := 1; n <= maxArchiveSuffix; n++ {
		candidate = filepath.Join(l.processedDir, fmt.Sprintf("%s_%d", name, n))
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free archive name for %s after %d attempts", name, maxArchiveSuffix)
}

// Rebuild seeds the in-memory set from marker files under inboxDir and returns
// how many folders were found. Folders that were marked but never archived
// stay in the inbox and are skipped from then on.
func (l *Ledger) Rebuild(inboxDir string) (int, error) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read inbox: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(inboxDir, entry.Name(), MarkerName)); err != nil {
			continue
		}
		l.Remember(entry.Name())
		count++
	}
	if count > 0 {
		l.logger.Info("restored completed folders",
			logging.String(logging.FieldEventType, "ledger_rebuilt"),
			logging.Int("count", count),
		)
	}
	return count, nil
}
