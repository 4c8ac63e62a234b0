// Package watcher notices hook status writes as they happen, so status
// changes reported by the hosted agent surface without waiting for the next
// periodic reconciliation sweep.
package watcher

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/JhihJian/SUMM-Daemon/config"
)

// StatusWatcher watches runtime/status.json files under the sessions
// directory and emits the owning session id on every write.
type StatusWatcher struct {
	watcher *fsnotify.Watcher
	cfg     *config.DaemonConfig
	logger  *logrus.Entry

	// Events receives session ids whose status file changed.
	Events chan string
}

// New creates a StatusWatcher rooted at the config's sessions directory.
// Runtime directories of existing sessions are watched immediately; new
// sessions are picked up as their directories appear.
func New(cfg *config.DaemonConfig, logger *logrus.Entry) (*StatusWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &StatusWatcher{
		watcher: fsw,
		cfg:     cfg,
		logger:  logger,
		Events:  make(chan string, 100),
	}

	if err := fsw.Add(cfg.SessionsDir); err != nil {
		fsw.Close()
		return nil, err
	}

	entries, err := os.ReadDir(cfg.SessionsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				w.watchSession(cfg.SessionDir(entry.Name()))
			}
		}
	}

	return w, nil
}

// watchSession registers the session directory and its runtime subdirectory.
// fsnotify watches are not recursive, so both levels are added explicitly.
func (w *StatusWatcher) watchSession(sessionDir string) {
	if err := w.watcher.Add(sessionDir); err != nil {
		w.logger.WithError(err).WithField("dir", sessionDir).Debug("Failed to watch session directory")
		return
	}
	runtimeDir := filepath.Join(sessionDir, "runtime")
	if _, err := os.Stat(runtimeDir); err == nil {
		if err := w.watcher.Add(runtimeDir); err != nil {
			w.logger.WithError(err).WithField("dir", runtimeDir).Debug("Failed to watch runtime directory")
		}
	}
}

// Start processes events until the context is cancelled.
func (w *StatusWatcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Status watcher error")
		case <-ctx.Done():
			return
		}
	}
}

func (w *StatusWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	// A new directory directly under sessions/ is a freshly created
	// session; a new runtime/ dir below it completes its watch set.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		parent := filepath.Dir(event.Name)
		switch {
		case parent == w.cfg.SessionsDir:
			w.watchSession(event.Name)
		case filepath.Base(event.Name) == "runtime" && filepath.Dir(parent) == w.cfg.SessionsDir:
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.WithError(err).Debug("Failed to watch runtime directory")
			}
		}
		return
	}

	if filepath.Base(event.Name) != "status.json" {
		return
	}

	runtimeDir := filepath.Dir(event.Name)
	sessionDir := filepath.Dir(runtimeDir)
	if filepath.Base(runtimeDir) != "runtime" || filepath.Dir(sessionDir) != w.cfg.SessionsDir {
		return
	}

	sessionID := filepath.Base(sessionDir)
	select {
	case w.Events <- sessionID:
	default:
		// A full queue means a sweep is already overdue; dropping is fine.
	}
}
