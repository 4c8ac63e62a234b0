// Package server owns the daemon's listening socket and background tasks:
// the accept loop, the periodic reconciliation sweep, the cleanup task, and
// startup recovery.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/errors"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/handler"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/recovery"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/registry"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/watcher"
	"github.com/JhihJian/SUMM-Daemon/pkg/hooks"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

const (
	// ReconcileInterval is the period of the status reconciliation sweep.
	ReconcileInterval = 5 * time.Second
	// CleanupInterval is the period of the stopped-session cleanup task.
	CleanupInterval = time.Hour
	// RequestTimeout bounds one request end to end, framed read included.
	RequestTimeout = 30 * time.Second
	// ShutdownGrace bounds how long in-flight handlers may run after a
	// termination signal.
	ShutdownGrace = 10 * time.Second
)

// Multiplexer is the full adapter surface the daemon needs.
type Multiplexer interface {
	handler.Multiplexer
	recovery.Multiplexer
}

// Daemon supervises the session fleet.
type Daemon struct {
	cfg      *config.DaemonConfig
	registry *registry.Registry
	handler  *handler.Handler
	mux      Multiplexer
	logger   *logrus.Entry
}

// New creates a Daemon.
func New(cfg *config.DaemonConfig, mux Multiplexer, logger *logrus.Entry) *Daemon {
	reg := registry.New()
	return &Daemon{
		cfg:      cfg,
		registry: reg,
		handler:  handler.New(reg, cfg, mux, logger),
		mux:      mux,
		logger:   logger,
	}
}

// Registry exposes the session registry, used by tests.
func (d *Daemon) Registry() *registry.Registry {
	return d.registry
}

// Run performs the startup sequence and blocks serving requests until the
// context is cancelled. tmux sessions deliberately outlive the daemon: none
// are killed on the way out.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	if err := hooks.InstallReporter(d.cfg.HookScriptPath()); err != nil {
		return fmt.Errorf("failed to install hook reporter: %w", err)
	}

	if err := d.mux.CheckAvailable(ctx); err != nil {
		return errors.TmuxMissing(err)
	}

	d.logger.Info("Recovering existing sessions...")
	recovered, err := recovery.Recover(ctx, d.cfg, d.mux, d.logger)
	if err != nil {
		return err
	}
	d.registry.Load(recovered)

	listener, err := d.bind()
	if err != nil {
		return err
	}
	defer listener.Close()

	notifyReady(d.logger)
	d.logger.WithField("socket", d.cfg.SocketPath).Info("Daemon listening")

	var tasks sync.WaitGroup
	tasks.Add(2)
	go func() {
		defer tasks.Done()
		d.reconcileLoop(ctx)
	}()
	go func() {
		defer tasks.Done()
		d.cleanupLoop(ctx)
	}()

	if statusWatcher, err := watcher.New(d.cfg, d.logger); err != nil {
		d.logger.WithError(err).Warn("Status watcher unavailable, relying on periodic reconciliation")
	} else {
		tasks.Add(2)
		go func() {
			defer tasks.Done()
			statusWatcher.Start(ctx)
		}()
		go func() {
			defer tasks.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case sessionID := <-statusWatcher.Events:
					d.reconcileSession(ctx, sessionID)
				}
			}
		}()
	}

	err = d.acceptLoop(ctx, listener)
	tasks.Wait()
	return err
}

// bind removes any stale socket file, listens, and restricts the socket to
// the owning user.
func (d *Daemon) bind() (net.Listener, error) {
	if _, err := os.Stat(d.cfg.SocketPath); err == nil {
		if err := os.Remove(d.cfg.SocketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", d.cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(d.cfg.SocketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

func (d *Daemon) acceptLoop(ctx context.Context, listener net.Listener) error {
	var inflight sync.WaitGroup

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("Shutting down, waiting for in-flight requests...")
				waitWithGrace(&inflight, ShutdownGrace, d.logger)
				return nil
			}
			d.logger.WithError(err).Error("Error accepting connection")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			d.handleConnection(ctx, conn)
		}()
	}
}

func waitWithGrace(wg *sync.WaitGroup, grace time.Duration, logger *logrus.Entry) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		logger.Warn("Shutdown grace period elapsed with handlers still in flight")
	}
}

// handleConnection serves exactly one request frame and one response frame.
func (d *Daemon) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	deadline := time.Now().Add(RequestTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		d.logger.WithError(err).Warn("Failed to set connection deadline")
	}

	reqCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// An unreadable or rejected frame gets no response; the connection is
	// closed and the client reports the failed exchange itself.
	req, err := protocol.ReadRequest(conn)
	if err != nil {
		d.logger.WithError(err).Error("Failed to read request")
		return
	}

	resp := d.handler.Handle(reqCtx, req)
	if err := protocol.WriteResponse(conn, resp); err != nil {
		d.logger.WithError(err).Error("Failed to write response")
	}
}

func (d *Daemon) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reconcileAll(ctx)
		}
	}
}

// reconcileAll recomputes the effective status of every session, persisting
// changes and refreshing activity timestamps of live sessions.
func (d *Daemon) reconcileAll(ctx context.Context) {
	for _, sess := range d.registry.Snapshot() {
		if ctx.Err() != nil {
			return
		}
		if d.registry.ConsumeSkip(sess.SessionID) {
			continue
		}
		d.reconcileOne(ctx, &sess)
	}
}

// reconcileSession refreshes a single session, used by the status watcher.
func (d *Daemon) reconcileSession(ctx context.Context, sessionID string) {
	sess, ok := d.registry.Get(sessionID)
	if !ok {
		return
	}
	if d.registry.ConsumeSkip(sessionID) {
		return
	}
	d.reconcileOne(ctx, &sess)
}

func (d *Daemon) reconcileOne(ctx context.Context, sess *session.Session) {
	alive := d.mux.SessionExists(ctx, sess.TmuxSession)
	status := sess.EffectiveStatus(alive)

	if status != sess.Status {
		d.logger.WithFields(logrus.Fields{
			"session_id": sess.SessionID,
			"from":       sess.Status,
			"to":         status,
		}).Info("Session status changed")

		err := d.registry.Update(sess.SessionID, func(s *session.Session) {
			s.Status = status
			if status == session.StatusStopped {
				s.PID = nil
			} else {
				s.PID = d.mux.PanePID(ctx, s.TmuxSession)
			}
		})
		if err != nil {
			d.logger.WithError(err).WithField("session_id", sess.SessionID).Warn("Failed to persist status change")
		}
	}

	if status != session.StatusStopped {
		d.registry.Touch(sess.SessionID)
	}
}

func (d *Daemon) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cleanupOnce()
		}
	}
}

// cleanupOnce reclaims sessions that have been stopped longer than the
// retention period, removing both the record and the session directory.
func (d *Daemon) cleanupOnce() {
	retention := time.Duration(d.cfg.CleanupRetentionHours) * time.Hour
	cutoff := time.Now().UTC().Add(-retention)

	for _, sess := range d.registry.Snapshot() {
		if sess.Status != session.StatusStopped || !sess.LastActivity.Before(cutoff) {
			continue
		}

		d.logger.WithField("session_id", sess.SessionID).Info("Cleaning up dormant session")
		if err := d.registry.Delete(sess.SessionID); err != nil {
			d.logger.WithError(err).WithField("session_id", sess.SessionID).Error("Failed to clean up session")
		}
	}
}
