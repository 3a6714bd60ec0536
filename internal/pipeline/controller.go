package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mintwatch/internal/config"
	"mintwatch/internal/folder"
	"mintwatch/internal/ledger"
	"mintwatch/internal/logging"
	"mintwatch/internal/mint"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/notifications"
	"mintwatch/internal/scheduler"
	"mintwatch/internal/upload"
	"mintwatch/internal/watcher"
)

// Dependencies are the collaborators a Controller drives. Store and Ledger
// are optional; a nil Ledger is replaced by one archiving into the configured
// processed directory.
type Dependencies struct {
	Uploader upload.Uploader
	Minter   mint.Minter
	Store    *mintlog.Store
	Notifier notifications.Service
	Ledger   *ledger.Ledger
}

// Controller owns the pending timers, the completion ledger, the in-flight
// task table and the run statistics for one inbox.
type Controller struct {
	inbox   string
	cluster string

	loader       *folder.Loader
	uploads      *upload.Pipeline
	orchestrator *mint.Orchestrator
	ledger       *ledger.Ledger
	store        *mintlog.Store
	notifier     notifications.Service
	scheduler    *scheduler.Scheduler
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	tasks   map[string]*Task
	stats   Stats
	minted  []*mintlog.Record
	lastErr error

	wg sync.WaitGroup
}

// New constructs a Controller for cfg.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Controller {
	logger = logging.NewComponentLogger(logger, "pipeline")
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	led := deps.Ledger
	if led == nil {
		led = ledger.New(cfg.Paths.ProcessedDir, logger)
	}

	c := &Controller{
		inbox:        filepath.Clean(cfg.Paths.InboxDir),
		cluster:      cfg.Network.Cluster,
		loader:       folder.NewLoader(logger),
		uploads:      upload.NewPipeline(deps.Uploader, uploadOptions(cfg), logger),
		orchestrator: mint.NewOrchestrator(deps.Minter, logger),
		ledger:       led,
		store:        deps.Store,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		tasks:        make(map[string]*Task),
	}
	c.stats.StartedAt = c.now()
	c.scheduler = scheduler.New(cfg.DebounceWindow(), func(path string) { c.Dispatch(path) })
	return c
}

func uploadOptions(cfg *config.Config) upload.Options {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return upload.Options{
		Attempts:  cfg.Pipeline.UploadAttempts,
		BaseDelay: seconds(cfg.Pipeline.UploadBaseDelaySeconds),
		MaxDelay:  seconds(cfg.Pipeline.UploadMaxDelaySeconds),
		Verify: upload.VerifyOptions{
			Enabled:         cfg.Storage.Verify,
			Timeout:         seconds(cfg.Storage.VerifyTimeout),
			InitialInterval: seconds(cfg.Storage.VerifyInitialInterval),
			MaxInterval:     seconds(cfg.Storage.VerifyMaxInterval),
			InlineMaxBytes:  cfg.Storage.VerifyInlineMaxBytes,
		},
	}
}

// Ledger exposes the completion ledger so startup can rebuild it.
func (c *Controller) Ledger() *ledger.Ledger {
	return c.ledger
}

// Run consumes events until ctx is done or events is closed.
func (c *Controller) Run(ctx context.Context, events <-chan watcher.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent filters one watcher event and, when it qualifies, starts or
// restarts the folder's debounce timer. It reports whether a timer is now
// pending for the folder.
func (c *Controller) HandleEvent(ev watcher.Event) bool {
	if ev.Kind == watcher.Error {
		logging.WarnWithContext(c.logger, "watcher error", "watcher_error",
			logging.Error(ev.Err),
			logging.String("path", ev.Name),
			logging.String(logging.FieldErrorHint, "check inbox permissions"),
			logging.String(logging.FieldImpact, "some filesystem changes may be missed"),
		)
		return false
	}

	path, ok := c.resolve(ev.Path)
	if !ok {
		return false
	}
	name := filepath.Base(path)
	logger := c.logger.With(logging.Folder(name))

	if c.ledger.IsDone(path) {
		logger.Debug("folder already minted; skipped",
			logging.String(logging.FieldEventType, "folder_skipped"),
			logging.String("trigger", ev.Kind.String()),
		)
		return false
	}

	now := c.now()
	c.mu.Lock()
	task, exists := c.tasks[path]
	switch {
	case !exists:
		task = &Task{Folder: name, Path: path, State: StateDiscovered, DiscoveredAt: now}
		c.tasks[path] = task
	case task.State != StateDiscovered && task.State != StateDebouncing:
		c.mu.Unlock()
		logger.Debug("folder busy; event ignored",
			logging.String(logging.FieldState, string(task.State)),
			logging.String("trigger", ev.Kind.String()),
		)
		return false
	}
	task.State = StateDebouncing
	task.UpdatedAt = now
	c.mu.Unlock()

	restarted := c.scheduler.Observe(path)
	logger.Debug("folder debouncing",
		logging.String(logging.FieldEventType, "folder_debouncing"),
		logging.String("trigger", ev.Kind.String()),
		logging.Bool("restarted", restarted),
		logging.Duration("window", c.scheduler.Window()),
	)
	return true
}

// resolve maps an event path to a first-level inbox folder, rejecting the
// inbox itself, hidden names and anything outside the inbox.
func (c *Controller) resolve(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	rel, err := filepath.Rel(c.inbox, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	first := strings.Split(rel, string(filepath.Separator))[0]
	if folder.IsHidden(first) {
		return "", false
	}
	return filepath.Join(c.inbox, first), true
}

// Dispatch starts processing path in the background. Folders that are done
// or already in flight are refused.
func (c *Controller) Dispatch(path string) bool {
	path = filepath.Clean(path)
	if c.ledger.IsDone(path) {
		c.drop(path)
		c.logger.Debug("folder already minted; skipped",
			logging.Folder(filepath.Base(path)),
			logging.String(logging.FieldEventType, "folder_skipped"),
		)
		return false
	}
	if !c.begin(path) {
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.run(context.Background(), path)
	}()
	return true
}

// Process runs path through the whole pipeline synchronously.
func (c *Controller) Process(ctx context.Context, path string) (*mintlog.Record, error) {
	path = filepath.Clean(path)
	if c.ledger.IsDone(path) {
		return nil, ErrAlreadyDone
	}
	if !c.begin(path) {
		return nil, ErrInFlight
	}
	c.scheduler.Cancel(path)
	return c.run(ctx, path)
}

// begin claims path for processing.
func (c *Controller) begin(path string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	task, ok := c.tasks[path]
	if !ok {
		task = &Task{Folder: filepath.Base(path), Path: path, State: StateDiscovered, DiscoveredAt: now}
		c.tasks[path] = task
	}
	if checkTransition(task.Folder, task.State, StateLoading) != nil {
		return false
	}
	task.State = StateLoading
	task.UpdatedAt = now
	return true
}

// advance moves path's task to next. Terminal states release the task.
func (c *Controller) advance(path string, next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	task, ok := c.tasks[path]
	if !ok {
		return checkTransition(filepath.Base(path), StateDiscovered, next)
	}
	if err := checkTransition(task.Folder, task.State, next); err != nil {
		return err
	}
	task.State = next
	task.UpdatedAt = c.now()
	if next.Terminal() {
		delete(c.tasks, path)
	}
	return nil
}

func (c *Controller) setRequestID(path, id string) {
	c.mu.Lock()
	if task, ok := c.tasks[path]; ok {
		task.RequestID = id
	}
	c.mu.Unlock()
}

func (c *Controller) drop(path string) {
	c.mu.Lock()
	if task, ok := c.tasks[path]; ok && (task.State == StateDiscovered || task.State == StateDebouncing) {
		delete(c.tasks, path)
	}
	c.mu.Unlock()
}

// CancelPending clears every debounce timer. In-flight folders continue.
func (c *Controller) CancelPending() int {
	pending := c.scheduler.Pending()
	c.scheduler.CancelAll()
	for _, path := range pending {
		c.drop(path)
	}
	return len(pending)
}

// Stop cancels pending timers and ignores later events. In-flight folders
// keep running; use Wait to drain them.
func (c *Controller) Stop() {
	c.CancelPending()
	c.scheduler.Stop()
}

// Wait blocks until every dispatched folder reaches a terminal state.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stats returns a snapshot of the run counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LastError returns the most recent folder failure.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Tasks returns the live tasks ordered by discovery time.
func (c *Controller) Tasks() []Task {
	c.mu.Lock()
	out := make([]Task, 0, len(c.tasks))
	for _, task := range c.tasks {
		out = append(out, *task)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].Folder < out[j].Folder
		}
		return out[i].DiscoveredAt.Before(out[j].DiscoveredAt)
	})
	return out
}

// InFlight counts tasks past the debounce window.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, task := range c.tasks {
		if task.State != StateDiscovered && task.State != StateDebouncing {
			n++
		}
	}
	return n
}

// PendingTimers counts folders waiting out their debounce window.
func (c *Controller) PendingTimers() int {
	return len(c.scheduler.Pending())
}

// Minted returns the assets minted by this process in completion order.
func (c *Controller) Minted() []*mintlog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*mintlog.Record, len(c.minted))
	copy(out, c.minted)
	return out
}
