// Package handler interprets client requests against the session registry,
// invoking the tmux adapter and workspace builder as needed.
package handler

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/errors"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/registry"
	"github.com/JhihJian/SUMM-Daemon/pkg/hooks"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
	"github.com/JhihJian/SUMM-Daemon/pkg/workspace"
	"github.com/JhihJian/SUMM-Daemon/version"
)

// Multiplexer is the slice of the tmux adapter the handler depends on.
type Multiplexer interface {
	CheckAvailable(ctx context.Context) error
	CreateSession(ctx context.Context, name, workdir, cmd string, env map[string]string) error
	SessionExists(ctx context.Context, name string) bool
	PanePID(ctx context.Context, name string) *int
	SendKeys(ctx context.Context, name, text string, submit bool) error
	KillSession(ctx context.Context, name string) error
	EnableLogging(ctx context.Context, name, logPath string) error
}

// Handler processes one request at a time against the shared registry.
type Handler struct {
	registry *registry.Registry
	cfg      *config.DaemonConfig
	mux      Multiplexer
	logger   *logrus.Entry
}

// New creates a Handler.
func New(reg *registry.Registry, cfg *config.DaemonConfig, mux Multiplexer, logger *logrus.Entry) *Handler {
	return &Handler{
		registry: reg,
		cfg:      cfg,
		mux:      mux,
		logger:   logger,
	}
}

// Handle dispatches a request and always produces exactly one response.
func (h *Handler) Handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	switch req.Type {
	case protocol.RequestStart:
		return h.handleStart(ctx, req.CLI, req.Init, req.Name)
	case protocol.RequestStop:
		return h.handleStop(ctx, req.SessionID)
	case protocol.RequestList:
		return h.handleList(req.StatusFilter)
	case protocol.RequestStatus:
		return h.handleStatus(ctx, req.SessionID)
	case protocol.RequestInject:
		return h.handleInject(ctx, req.SessionID, req.Message)
	case protocol.RequestDaemonStatus:
		return h.handleDaemonStatus()
	default:
		return protocol.Error(errors.InvalidCommand("unknown request type: " + string(req.Type)))
	}
}

func (h *Handler) handleStart(ctx context.Context, cli, init, name string) *protocol.Response {
	h.logger.WithFields(logrus.Fields{"cli": cli, "init": init}).Info("Start request")

	if strings.TrimSpace(cli) == "" {
		return protocol.Error(errors.InvalidCommand("command must not be empty"))
	}

	if err := h.mux.CheckAvailable(ctx); err != nil {
		return protocol.Error(errors.TmuxMissing(err))
	}

	if _, err := os.Stat(init); err != nil {
		return protocol.Error(errors.InitNotFound(init))
	}

	sessionID := h.freshSessionID()
	sessionDir := h.cfg.SessionDir(sessionID)

	sess, err := h.createSession(ctx, sessionID, sessionDir, cli, init, name)
	if err != nil {
		// Creation is atomic from the caller's perspective: tear down
		// whatever was materialized before the failure.
		if rmErr := os.RemoveAll(sessionDir); rmErr != nil {
			h.logger.WithError(rmErr).Warn("Failed to clean up after aborted session creation")
		}
		h.logger.WithError(err).Error("Failed to create session")
		return protocol.Error(asDaemonError(err))
	}

	if err := h.registry.Insert(sess); err != nil {
		h.logger.WithError(err).Error("Failed to register session")
		return protocol.Error(errors.CreateFailed(err))
	}

	resp, err := protocol.Success(sess)
	if err != nil {
		return protocol.Error(errors.CreateFailed(err))
	}
	h.logger.WithFields(logrus.Fields{"session_id": sessionID, "cli": cli}).Info("Created session")
	return resp
}

// freshSessionID generates an id that collides neither with the registry nor
// with metadata already on disk.
func (h *Handler) freshSessionID() string {
	for {
		id := session.GenerateID()
		if _, exists := h.registry.Get(id); exists {
			continue
		}
		if _, err := os.Stat(h.cfg.SessionMetaPath(id)); err == nil {
			continue
		}
		return id
	}
}

func (h *Handler) createSession(ctx context.Context, sessionID, sessionDir, cli, init, name string) (*session.Session, error) {
	if err := workspace.CreateSessionStructure(sessionDir); err != nil {
		return nil, err
	}

	workspaceDir := h.cfg.SessionWorkspacePath(sessionID)
	if err := workspace.InitializeWorkdir(workspaceDir, init); err != nil {
		return nil, err
	}

	runtimeDir := h.cfg.SessionRuntimePath(sessionID)
	if err := hooks.Deploy(workspaceDir, cli, sessionID, runtimeDir, h.cfg.HookScriptPath()); err != nil {
		return nil, err
	}

	tmuxName := h.cfg.TmuxSessionName(sessionID)
	env := map[string]string{
		"SUMM_SESSION_ID":  sessionID,
		"SUMM_RUNTIME_DIR": runtimeDir,
	}
	if err := h.mux.CreateSession(ctx, tmuxName, workspaceDir, cli, env); err != nil {
		return nil, err
	}

	if err := h.mux.EnableLogging(ctx, tmuxName, h.cfg.SessionLogPath(sessionID)); err != nil {
		h.logger.WithError(err).Warn("Failed to enable session logging")
	}

	displayName := name
	if displayName == "" {
		displayName = sessionID
	}

	now := time.Now().UTC()
	sess := &session.Session{
		SessionID:    sessionID,
		TmuxSession:  tmuxName,
		Name:         displayName,
		CLI:          cli,
		Workdir:      sessionDir,
		InitSource:   init,
		Status:       session.StatusRunning,
		PID:          h.mux.PanePID(ctx, tmuxName),
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := sess.SaveMetadata(); err != nil {
		return nil, err
	}
	return sess, nil
}

// asDaemonError passes typed errors through and folds everything else into
// session creation failure.
func asDaemonError(err error) *errors.DaemonError {
	if daemonErr, ok := err.(*errors.DaemonError); ok {
		return daemonErr
	}
	return errors.CreateFailed(err)
}

func (h *Handler) handleStop(ctx context.Context, sessionID string) *protocol.Response {
	h.logger.WithField("session_id", sessionID).Info("Stop request")

	sess, ok := h.registry.Get(sessionID)
	if !ok {
		return protocol.Error(errors.SessionNotFound(sessionID))
	}

	if err := h.mux.KillSession(ctx, sess.TmuxSession); err != nil {
		h.logger.WithError(err).Warn("Failed to kill tmux session")
	}

	if err := h.registry.Update(sessionID, func(s *session.Session) {
		s.Status = session.StatusStopped
		s.PID = nil
	}); err != nil {
		h.logger.WithError(err).Warn("Failed to persist stopped session")
	}
	// Write-through: don't let the next reconciliation tick resurrect the
	// session before tmux observes the kill.
	h.registry.SkipNextReconcile(sessionID)

	resp, err := protocol.Success(protocol.StopData{SessionID: sessionID, Status: string(session.StatusStopped)})
	if err != nil {
		return protocol.Error(errors.CreateFailed(err))
	}
	return resp
}

func (h *Handler) handleList(statusFilter string) *protocol.Response {
	h.logger.WithField("status_filter", statusFilter).Debug("List request")

	infos := h.registry.List(statusFilter)
	resp, err := protocol.Success(map[string]interface{}{"sessions": infos})
	if err != nil {
		return protocol.Error(errors.CreateFailed(err))
	}
	return resp
}

func (h *Handler) handleStatus(ctx context.Context, sessionID string) *protocol.Response {
	h.logger.WithField("session_id", sessionID).Debug("Status request")

	sess, ok := h.registry.Get(sessionID)
	if !ok {
		return protocol.Error(errors.SessionNotFound(sessionID))
	}

	sess.Status = sess.EffectiveStatus(h.mux.SessionExists(ctx, sess.TmuxSession))

	resp, err := protocol.Success(&sess)
	if err != nil {
		return protocol.Error(errors.CreateFailed(err))
	}
	return resp
}

func (h *Handler) handleInject(ctx context.Context, sessionID, message string) *protocol.Response {
	h.logger.WithFields(logrus.Fields{"session_id": sessionID, "message_len": len(message)}).Info("Inject request")

	sess, ok := h.registry.Get(sessionID)
	if !ok {
		return protocol.Error(errors.SessionNotFound(sessionID))
	}

	// Injection needs a live tmux session regardless of the cached status.
	if !h.mux.SessionExists(ctx, sess.TmuxSession) {
		return protocol.Error(errors.SessionStopped(sessionID))
	}

	if err := h.mux.SendKeys(ctx, sess.TmuxSession, message, true); err != nil {
		h.logger.WithError(err).Error("Failed to inject message")
		return protocol.Error(errors.InjectFailed(err))
	}

	resp, err := protocol.Success(protocol.InjectData{
		SessionID:     sessionID,
		Injected:      true,
		MessageLength: len(message),
	})
	if err != nil {
		return protocol.Error(errors.InjectFailed(err))
	}
	return resp
}

func (h *Handler) handleDaemonStatus() *protocol.Response {
	h.logger.Debug("DaemonStatus request")

	active := h.registry.Count(func(s *session.Session) bool {
		return s.Status == session.StatusRunning || s.Status == session.StatusIdle
	})

	resp, err := protocol.Success(protocol.DaemonStatusData{
		Running:      true,
		SessionCount: active,
		Version:      version.Version,
	})
	if err != nil {
		return protocol.Error(errors.CreateFailed(err))
	}
	return resp
}
