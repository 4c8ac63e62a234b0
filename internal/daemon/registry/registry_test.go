package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

func newSession(t *testing.T, id string, status session.Status, createdAt time.Time) *session.Session {
	t.Helper()
	workdir := filepath.Join(t.TempDir(), id)
	require.NoError(t, os.MkdirAll(workdir, 0755))
	return &session.Session{
		SessionID:    id,
		TmuxSession:  "summ-" + id,
		Name:         id,
		CLI:          "claude",
		Workdir:      workdir,
		Status:       status,
		CreatedAt:    createdAt,
		LastActivity: createdAt,
	}
}

func TestInsertAndGet(t *testing.T) {
	r := New()
	s := newSession(t, "a", session.StatusRunning, time.Now())
	require.NoError(t, r.Insert(s))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.SessionID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestInsertCollision(t *testing.T) {
	r := New()
	require.NoError(t, r.Insert(newSession(t, "a", session.StatusRunning, time.Now())))
	assert.Error(t, r.Insert(newSession(t, "a", session.StatusIdle, time.Now())))
}

func TestListSortedByCreatedAtDescending(t *testing.T) {
	r := New()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(newSession(t, "old", session.StatusRunning, base)))
	require.NoError(t, r.Insert(newSession(t, "new", session.StatusRunning, base.Add(time.Hour))))
	require.NoError(t, r.Insert(newSession(t, "mid", session.StatusStopped, base.Add(time.Minute))))

	infos := r.List("")
	require.Len(t, infos, 3)
	assert.Equal(t, "new", infos[0].SessionID)
	assert.Equal(t, "mid", infos[1].SessionID)
	assert.Equal(t, "old", infos[2].SessionID)
}

func TestListStatusFilter(t *testing.T) {
	r := New()
	require.NoError(t, r.Insert(newSession(t, "a", session.StatusRunning, time.Now())))
	require.NoError(t, r.Insert(newSession(t, "b", session.StatusStopped, time.Now())))

	running := r.List("running")
	require.Len(t, running, 1)
	assert.Equal(t, "a", running[0].SessionID)

	// Unknown filter values produce an empty result, not an error.
	assert.Empty(t, r.List("paused"))
}

func TestUpdatePersists(t *testing.T) {
	r := New()
	s := newSession(t, "a", session.StatusRunning, time.Now())
	require.NoError(t, r.Insert(s))

	require.NoError(t, r.Update("a", func(s *session.Session) {
		s.Status = session.StatusStopped
		s.PID = nil
	}))

	got, _ := r.Get("a")
	assert.Equal(t, session.StatusStopped, got.Status)

	loaded, err := session.LoadMetadata(s.Workdir)
	require.NoError(t, err)
	assert.Equal(t, session.StatusStopped, loaded.Status)
}

func TestUpdateUnknownSession(t *testing.T) {
	assert.Error(t, New().Update("ghost", func(*session.Session) {}))
}

func TestDeleteUnlinksWorkdir(t *testing.T) {
	r := New()
	s := newSession(t, "a", session.StatusStopped, time.Now())
	require.NoError(t, r.Insert(s))

	require.NoError(t, r.Delete("a"))
	_, ok := r.Get("a")
	assert.False(t, ok)
	assert.NoDirExists(t, s.Workdir)
}

func TestCount(t *testing.T) {
	r := New()
	require.NoError(t, r.Insert(newSession(t, "a", session.StatusRunning, time.Now())))
	require.NoError(t, r.Insert(newSession(t, "b", session.StatusIdle, time.Now())))
	require.NoError(t, r.Insert(newSession(t, "c", session.StatusStopped, time.Now())))

	active := r.Count(func(s *session.Session) bool {
		return s.Status == session.StatusRunning || s.Status == session.StatusIdle
	})
	assert.Equal(t, 2, active)
}

func TestSkipReconcileConsumedOnce(t *testing.T) {
	r := New()
	require.NoError(t, r.Insert(newSession(t, "a", session.StatusRunning, time.Now())))

	assert.False(t, r.ConsumeSkip("a"))
	r.SkipNextReconcile("a")
	assert.True(t, r.ConsumeSkip("a"))
	assert.False(t, r.ConsumeSkip("a"))
}

func TestLoadReplacesContents(t *testing.T) {
	r := New()
	require.NoError(t, r.Insert(newSession(t, "old", session.StatusRunning, time.Now())))

	s := newSession(t, "recovered", session.StatusIdle, time.Now())
	r.Load(map[string]*session.Session{"recovered": s})

	_, ok := r.Get("old")
	assert.False(t, ok)
	got, ok := r.Get("recovered")
	require.True(t, ok)
	assert.Equal(t, session.StatusIdle, got.Status)
}
