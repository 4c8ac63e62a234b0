package recovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/logging"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

type fakeMux struct {
	owned []string
	pid   int
}

func (m *fakeMux) ListOwned(ctx context.Context, prefix string) ([]string, error) {
	return m.owned, nil
}

func (m *fakeMux) PanePID(ctx context.Context, name string) *int {
	pid := m.pid
	return &pid
}

func writeMeta(t *testing.T, cfg *config.DaemonConfig, id string, status session.Status) *session.Session {
	t.Helper()
	sessionDir := cfg.SessionDir(id)
	require.NoError(t, os.MkdirAll(filepath.Join(sessionDir, "runtime"), 0755))

	now := time.Now().UTC().Truncate(time.Second)
	sess := &session.Session{
		SessionID:    id,
		TmuxSession:  cfg.TmuxSessionName(id),
		Name:         id,
		CLI:          "claude",
		Workdir:      sessionDir,
		InitSource:   "/tmp/init",
		Status:       status,
		CreatedAt:    now,
		LastActivity: now,
	}
	require.NoError(t, sess.SaveMetadata())
	return sess
}

func testConfig(t *testing.T) *config.DaemonConfig {
	t.Helper()
	cfg := config.Default(t.TempDir())
	require.NoError(t, cfg.EnsureDirectories())
	return cfg
}

func TestRecoverEmptyDirectory(t *testing.T) {
	cfg := testConfig(t)

	sessions, err := Recover(context.Background(), cfg, &fakeMux{}, logging.NewLogger("recovery-test"))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRecoverMissingSessionsDirectory(t *testing.T) {
	cfg := config.Default(filepath.Join(t.TempDir(), "never-created"))

	sessions, err := Recover(context.Background(), cfg, &fakeMux{}, logging.NewLogger("recovery-test"))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRecoverLiveSessionRefreshesPID(t *testing.T) {
	cfg := testConfig(t)
	orig := writeMeta(t, cfg, "session_live", session.StatusRunning)

	mux := &fakeMux{owned: []string{orig.TmuxSession}, pid: 777}
	sessions, err := Recover(context.Background(), cfg, mux, logging.NewLogger("recovery-test"))
	require.NoError(t, err)

	require.Contains(t, sessions, "session_live")
	recovered := sessions["session_live"]
	require.NotNil(t, recovered.PID)
	assert.Equal(t, 777, *recovered.PID)
	// No hook report: a hosted but silent agent is running.
	assert.Equal(t, session.StatusRunning, recovered.Status)

	// Identity fields are untouched by recovery.
	assert.Equal(t, orig.SessionID, recovered.SessionID)
	assert.Equal(t, orig.TmuxSession, recovered.TmuxSession)
	assert.Equal(t, orig.CLI, recovered.CLI)
	assert.Equal(t, orig.Workdir, recovered.Workdir)
	assert.Equal(t, orig.CreatedAt, recovered.CreatedAt)
}

func TestRecoverLiveSessionFusesHookStatus(t *testing.T) {
	cfg := testConfig(t)
	sess := writeMeta(t, cfg, "session_idle", session.StatusRunning)

	hookJSON := `{"state":"idle","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`
	require.NoError(t, os.WriteFile(cfg.SessionStatusPath("session_idle"), []byte(hookJSON), 0644))

	mux := &fakeMux{owned: []string{sess.TmuxSession}}
	sessions, err := Recover(context.Background(), cfg, mux, logging.NewLogger("recovery-test"))
	require.NoError(t, err)

	assert.Equal(t, session.StatusIdle, sessions["session_idle"].Status)

	// The fused value is persisted.
	loaded, err := session.LoadMetadata(cfg.SessionDir("session_idle"))
	require.NoError(t, err)
	assert.Equal(t, session.StatusIdle, loaded.Status)
}

func TestRecoverDeadSessionDowngraded(t *testing.T) {
	cfg := testConfig(t)
	writeMeta(t, cfg, "session_dead", session.StatusRunning)

	sessions, err := Recover(context.Background(), cfg, &fakeMux{}, logging.NewLogger("recovery-test"))
	require.NoError(t, err)

	assert.Equal(t, session.StatusStopped, sessions["session_dead"].Status)
	assert.Nil(t, sessions["session_dead"].PID)

	loaded, err := session.LoadMetadata(cfg.SessionDir("session_dead"))
	require.NoError(t, err)
	assert.Equal(t, session.StatusStopped, loaded.Status)
}

func TestRecoverStoppedSessionKeptAsIs(t *testing.T) {
	cfg := testConfig(t)
	writeMeta(t, cfg, "session_old", session.StatusStopped)

	sessions, err := Recover(context.Background(), cfg, &fakeMux{}, logging.NewLogger("recovery-test"))
	require.NoError(t, err)
	assert.Equal(t, session.StatusStopped, sessions["session_old"].Status)
}

func TestRecoverSkipsJunkEntries(t *testing.T) {
	cfg := testConfig(t)

	// Directory without meta.json and a stray file are both ignored.
	require.NoError(t, os.MkdirAll(cfg.SessionDir("no_meta"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SessionsDir, "stray.txt"), []byte("x"), 0644))

	sessions, err := Recover(context.Background(), cfg, &fakeMux{}, logging.NewLogger("recovery-test"))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRecoverNeverAdoptsOrphans(t *testing.T) {
	cfg := testConfig(t)

	// tmux hosts a prefixed session with no metadata on disk.
	mux := &fakeMux{owned: []string{cfg.TmuxSessionName("session_ghost")}}
	sessions, err := Recover(context.Background(), cfg, mux, logging.NewLogger("recovery-test"))
	require.NoError(t, err)
	assert.NotContains(t, sessions, "session_ghost")
}
