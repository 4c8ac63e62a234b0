// Package session defines the session record persisted in meta.json, the
// hook status record written by the reporter script, and the fusion of the
// two truth sources into an effective status.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the coarse session state visible to clients.
type Status string

const (
	// StatusRunning means the hosted CLI is executing a task (or has not
	// reported otherwise).
	StatusRunning Status = "running"
	// StatusIdle means the hosted CLI reported it is waiting for input.
	StatusIdle Status = "idle"
	// StatusStopped means the tmux session has exited.
	StatusStopped Status = "stopped"
)

// ParseStatus converts a filter string to a Status. The boolean is false for
// unknown values.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusRunning, StatusIdle, StatusStopped:
		return Status(s), true
	}
	return "", false
}

// Session is the metadata record for one managed CLI process. It is the
// authoritative state across daemon restarts, mirrored to meta.json in the
// session's workdir.
type Session struct {
	// SessionID is the stable opaque identifier.
	SessionID string `json:"session_id"`
	// TmuxSession is the tmux session name (prefix + SessionID).
	TmuxSession string `json:"tmux_session"`
	// Name is the human-readable label, defaulting to SessionID.
	Name string `json:"name"`
	// CLI is the hosted command string, recorded for introspection only.
	CLI string `json:"cli"`
	// Workdir is the session's service-owned directory, parent of
	// workspace/ and runtime/.
	Workdir string `json:"workdir"`
	// InitSource is the path the workspace was materialized from.
	InitSource string `json:"init_source"`
	// Status is the persisted status snapshot; the authoritative value at
	// any instant is the fused effective status.
	Status Status `json:"status"`
	// PID is the pane process id, informational only and possibly stale.
	PID *int `json:"pid"`
	// CreatedAt is the creation timestamp (UTC).
	CreatedAt time.Time `json:"created_at"`
	// LastActivity is refreshed by reconciliation while the session lives.
	LastActivity time.Time `json:"last_activity"`
}

// Info is the projection of a Session returned by List.
type Info struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	CLI       string    `json:"cli"`
	Workdir   string    `json:"workdir"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToInfo projects the session to its List representation.
func (s *Session) ToInfo() Info {
	return Info{
		SessionID: s.SessionID,
		Name:      s.Name,
		CLI:       s.CLI,
		Workdir:   s.Workdir,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}

// GenerateID returns a fresh session identifier of the form session_xxxxxxxx.
func GenerateID() string {
	return "session_" + strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// MetaPath returns the path of the session's metadata file.
func (s *Session) MetaPath() string {
	return filepath.Join(s.Workdir, "meta.json")
}

// StatusPath returns the path of the hook status file in runtime/.
func (s *Session) StatusPath() string {
	return filepath.Join(s.Workdir, "runtime", "status.json")
}

// SaveMetadata rewrites meta.json with the current record.
func (s *Session) SaveMetadata() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session metadata: %w", err)
	}
	if err := os.WriteFile(s.MetaPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads a session record from meta.json in the given workdir.
func LoadMetadata(workdir string) (*Session, error) {
	metaPath := filepath.Join(workdir, "meta.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session metadata: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session metadata %s: %w", metaPath, err)
	}
	return &sess, nil
}
