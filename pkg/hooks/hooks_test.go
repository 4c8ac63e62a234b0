package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallReporter(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "bin", "summ-hook")
	require.NoError(t, InstallReporter(scriptPath))

	info, err := os.Stat(scriptPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	content, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "#!/bin/bash")
	assert.Contains(t, string(content), "session-start")
	assert.Contains(t, string(content), "write_status")
}

func TestInstallReporterOverwritesStaleCopy(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "summ-hook")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/bash\n# old version\n"), 0755))

	require.NoError(t, InstallReporter(scriptPath))

	content, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	assert.Equal(t, ReporterScript, string(content))
}

func TestSupportsHooks(t *testing.T) {
	assert.True(t, SupportsHooks("claude"))
	assert.True(t, SupportsHooks("claude --dangerously-skip-permissions"))
	assert.False(t, SupportsHooks("aider-chat"))
	assert.False(t, SupportsHooks("bash"))
}

func TestDeployClaudeHooks(t *testing.T) {
	workspaceDir := t.TempDir()
	runtimeDir := filepath.Join(t.TempDir(), "runtime")

	require.NoError(t, Deploy(workspaceDir, "claude", "session_abc", runtimeDir, "/base/bin/summ-hook"))

	settingsPath := filepath.Join(workspaceDir, ".claude", "settings.local.json")
	require.FileExists(t, settingsPath)

	raw, err := os.ReadFile(settingsPath)
	require.NoError(t, err)

	var settings struct {
		Hooks map[string][]struct {
			Hooks []struct {
				Type    string `json:"type"`
				Command string `json:"command"`
			} `json:"hooks"`
		} `json:"hooks"`
	}
	require.NoError(t, json.Unmarshal(raw, &settings))

	for event, arg := range map[string]string{
		"SessionStart": "session-start",
		"Stop":         "stop",
		"SubagentStop": "subagent-stop",
		"SessionEnd":   "session-end",
	} {
		bindings, ok := settings.Hooks[event]
		require.True(t, ok, "missing event %s", event)
		require.Len(t, bindings, 1)
		require.Len(t, bindings[0].Hooks, 1)

		hook := bindings[0].Hooks[0]
		assert.Equal(t, "command", hook.Type)
		assert.Contains(t, hook.Command, "SUMM_SESSION_ID=session_abc")
		assert.Contains(t, hook.Command, "SUMM_RUNTIME_DIR="+runtimeDir)
		assert.Contains(t, hook.Command, "/base/bin/summ-hook "+arg)
	}
}

func TestDeploySkippedForUnsupportedCLI(t *testing.T) {
	workspaceDir := t.TempDir()

	require.NoError(t, Deploy(workspaceDir, "aider-chat", "session_abc", "/runtime", "/bin/summ-hook"))
	assert.NoFileExists(t, filepath.Join(workspaceDir, ".claude", "settings.local.json"))
}
