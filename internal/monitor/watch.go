package monitor

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SecretsWatcher watches the secrets file and queues a reload command
// when it settles after a change. Editors save through temp-file renames,
// so the parent directory is watched and events are filtered by name and
// debounced.
type SecretsWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	path     string
	cmds     chan<- Command
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewSecretsWatcher prepares a watcher for the given secrets file.
func NewSecretsWatcher(log *zap.Logger, path string, cmds chan<- Command) (*SecretsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &SecretsWatcher{
		watcher:  watcher,
		log:      log,
		path:     filepath.Clean(path),
		cmds:     cmds,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking.
func (w *SecretsWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.log.Info("watching secrets file", zap.String("path", w.path))

	go w.run()
	return nil
}

// Stop detaches the watcher and waits for the loop to exit.
func (w *SecretsWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *SecretsWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("secrets watcher error", zap.Error(err))

		case <-ticker.C:
			w.mu.Lock()
			settled := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if settled {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if !settled {
				continue
			}
			select {
			case w.cmds <- CmdReloadSecrets:
				w.log.Debug("secrets file changed, reload queued")
			default:
				// Command queue full; the change will be picked up by
				// the next manual SIGHUP.
			}
		}
	}
}
