// Package recovery rebuilds the session registry at daemon startup by
// reconciling persisted metadata against the live tmux session list.
package recovery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

// Multiplexer is the slice of the tmux adapter recovery depends on.
type Multiplexer interface {
	ListOwned(ctx context.Context, prefix string) ([]string, error)
	PanePID(ctx context.Context, name string) *int
}

// Recover scans sessions/*/meta.json and fuses each record with tmux
// liveness. Sessions whose tmux process survived the daemon restart come
// back with a fresh effective status; the rest are downgraded to stopped.
// tmux sessions carrying the daemon's prefix but lacking metadata are
// orphans: they are logged and never adopted.
func Recover(ctx context.Context, cfg *config.DaemonConfig, mux Multiplexer, logger *logrus.Entry) (map[string]*session.Session, error) {
	sessions := make(map[string]*session.Session)

	owned, err := mux.ListOwned(ctx, cfg.TmuxPrefix)
	if err != nil {
		logger.WithError(err).Warn("Failed to list tmux sessions during recovery")
	}
	alive := make(map[string]bool, len(owned))
	for _, name := range owned {
		alive[name] = true
	}

	entries, err := os.ReadDir(cfg.SessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return sessions, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sessionDir := cfg.SessionDir(entry.Name())
		if _, err := os.Stat(cfg.SessionMetaPath(entry.Name())); err != nil {
			continue
		}

		sess, err := session.LoadMetadata(sessionDir)
		if err != nil {
			logger.WithError(err).WithField("dir", sessionDir).Warn("Skipping unreadable session metadata")
			continue
		}

		if alive[sess.TmuxSession] {
			sess.PID = mux.PanePID(ctx, sess.TmuxSession)
			status := sess.EffectiveStatus(true)
			if status != sess.Status {
				sess.Status = status
				if err := sess.SaveMetadata(); err != nil {
					logger.WithError(err).Warn("Failed to persist recovered session")
				}
			}
			logger.WithFields(logrus.Fields{
				"session_id": sess.SessionID,
				"tmux":       sess.TmuxSession,
				"status":     sess.Status,
			}).Info("Recovered live session")
		} else if sess.Status == session.StatusRunning || sess.Status == session.StatusIdle {
			sess.Status = session.StatusStopped
			sess.PID = nil
			if err := sess.SaveMetadata(); err != nil {
				logger.WithError(err).Warn("Failed to persist stopped session")
			}
			logger.WithField("session_id", sess.SessionID).Info("Session marked as stopped (tmux session gone)")
		}

		sessions[sess.SessionID] = sess
	}

	for _, name := range owned {
		id := strings.TrimPrefix(name, cfg.TmuxPrefix)
		if _, known := sessions[id]; !known {
			logger.WithField("tmux", name).Warn("Orphan tmux session without metadata, consider manual cleanup")
		}
	}

	logger.WithField("count", len(sessions)).Info("Recovered sessions from disk and tmux")
	return sessions, nil
}
