package session

import (
	"encoding/json"
	"os"
	"time"
)

// StaleThreshold is the age beyond which a hook report is distrusted.
// A silent agent is assumed busy rather than idle, so long operations that
// outlive their last Stop hook do not advertise a false idle state.
const StaleThreshold = 120 * time.Second

// HookState is the fine-grained state reported by the hook script.
type HookState string

const (
	// HookIdle means the CLI is waiting for input.
	HookIdle HookState = "idle"
	// HookBusy means the CLI is processing a task.
	HookBusy HookState = "busy"
	// HookStopped means the CLI has ended its session.
	HookStopped HookState = "stopped"
)

// HookStatus is the record the reporter script writes to runtime/status.json.
type HookStatus struct {
	State     HookState `json:"state"`
	Message   string    `json:"message,omitempty"`
	Event     string    `json:"event,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadHookStatus reads and parses the session's hook status file. It returns
// nil if the file is missing or unreadable; the caller treats that as "agent
// hosted but silent".
func (s *Session) ReadHookStatus() *HookStatus {
	data, err := os.ReadFile(s.StatusPath())
	if err != nil {
		return nil
	}

	var status HookStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil
	}
	return &status
}

// FuseStatus computes the effective status from the two truth sources: tmux
// liveness (authoritative) and the hook report (advisory, possibly stale).
func FuseStatus(tmuxAlive bool, hook *HookStatus, now time.Time) Status {
	if !tmuxAlive {
		return StatusStopped
	}
	if hook == nil {
		return StatusRunning
	}
	if now.Sub(hook.Timestamp) > StaleThreshold {
		return StatusRunning
	}
	switch hook.State {
	case HookIdle:
		return StatusIdle
	case HookStopped:
		return StatusStopped
	default:
		return StatusRunning
	}
}

// EffectiveStatus fuses the given tmux liveness with the on-disk hook report.
func (s *Session) EffectiveStatus(tmuxAlive bool) Status {
	return FuseStatus(tmuxAlive, s.ReadHookStatus(), time.Now().UTC())
}
