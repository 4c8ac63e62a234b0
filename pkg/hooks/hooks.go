// Package hooks installs the status reporter script and deploys per-session
// hook configuration so the hosted agent reports lifecycle events back to
// the daemon.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReporterScript is the hook handler installed at BASE/bin/summ-hook. The
// hosted agent invokes it on lifecycle events; it writes the session's
// runtime/status.json, which the daemon fuses into the effective status.
const ReporterScript = `#!/bin/bash
# summ-hook: agent hook handler
# Usage: summ-hook <event>

set -e

EVENT="$1"
shift || true
RUNTIME_DIR="${SUMM_RUNTIME_DIR:-$PWD/../runtime}"
STATUS_FILE="$RUNTIME_DIR/status.json"

# Hook input (JSON) arrives on stdin
INPUT=$(cat)

mkdir -p "$(dirname "$STATUS_FILE")"

write_status() {
    local state="$1"
    local message="$2"
    local tmp="$STATUS_FILE.tmp"

    cat > "$tmp" << EOF
{
  "state": "$state",
  "message": "$message",
  "event": "$EVENT",
  "timestamp": "$(date -u +%Y-%m-%dT%H:%M:%SZ)"
}
EOF
    mv "$tmp" "$STATUS_FILE"
}

case "$EVENT" in
    session-start)
        write_status "idle" "Session started, ready for tasks"
        ;;

    stop)
        # Main agent completed a response
        write_status "idle" "Task completed"
        ;;

    subagent-stop)
        write_status "idle" "Subagent task completed"
        ;;

    session-end)
        REASON=$(echo "$INPUT" | jq -r '.reason // "unknown"' 2>/dev/null || echo "unknown")
        write_status "stopped" "Session ended: $REASON"
        ;;

    *)
        echo "Unknown event: $EVENT" >&2
        exit 1
        ;;
esac

exit 0
`

// hookBinding is one entry in a hook event list.
type hookBinding struct {
	Hooks []hookCommand `json:"hooks"`
}

type hookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// InstallReporter writes the reporter script to scriptPath with execute
// permission, overwriting any stale copy.
func InstallReporter(scriptPath string) error {
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	if existing, err := os.ReadFile(scriptPath); err == nil && string(existing) == ReporterScript {
		return nil
	}

	if err := os.WriteFile(scriptPath, []byte(ReporterScript), 0755); err != nil {
		return fmt.Errorf("failed to write hook script %s: %w", scriptPath, err)
	}
	if err := os.Chmod(scriptPath, 0755); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", scriptPath, err)
	}
	return nil
}

// SupportsHooks reports whether the given CLI command hosts an agent family
// the reporter knows how to hook.
func SupportsHooks(cli string) bool {
	return strings.Contains(cli, "claude")
}

// Deploy writes hook configuration for the hosted CLI into the workspace.
// For CLIs without hook support, deployment is skipped and the session falls
// back to pure liveness tracking.
func Deploy(workspaceDir, cli, sessionID, runtimeDir, scriptPath string) error {
	if !SupportsHooks(cli) {
		return nil
	}
	return deployClaudeHooks(workspaceDir, sessionID, runtimeDir, scriptPath)
}

// deployClaudeHooks writes workspace/.claude/settings.local.json binding the
// four lifecycle events to the reporter. The session id and runtime
// directory ride along as environment variables in the hook command.
func deployClaudeHooks(workspaceDir, sessionID, runtimeDir, scriptPath string) error {
	claudeDir := filepath.Join(workspaceDir, ".claude")
	if err := os.MkdirAll(claudeDir, 0755); err != nil {
		return fmt.Errorf("failed to create .claude directory: %w", err)
	}

	hookBase := fmt.Sprintf("SUMM_SESSION_ID=%s SUMM_RUNTIME_DIR=%s %s", sessionID, runtimeDir, scriptPath)

	bind := func(event string) []hookBinding {
		return []hookBinding{{
			Hooks: []hookCommand{{
				Type:    "command",
				Command: hookBase + " " + event,
			}},
		}}
	}

	settings := map[string]interface{}{
		"hooks": map[string]interface{}{
			"SessionStart": bind("session-start"),
			"Stop":         bind("stop"),
			"SubagentStop": bind("subagent-stop"),
			"SessionEnd":   bind("session-end"),
		},
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize hook settings: %w", err)
	}

	settingsPath := filepath.Join(claudeDir, "settings.local.json")
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write hook settings %s: %w", settingsPath, err)
	}
	return nil
}
