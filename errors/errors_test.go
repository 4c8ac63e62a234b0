package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemonErrorFormat(t *testing.T) {
	err := SessionNotFound("nope")
	assert.Equal(t, CodeSessionNotFound, err.Code)
	assert.Equal(t, "Session not found: nope", err.Message)
	assert.Equal(t, "E002: Session not found: nope", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ExtractFailed("/tmp/x.zip", cause)

	assert.Equal(t, CodeExtractFailed, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: disk full")
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, Code(""), GetCode(nil))
	assert.Equal(t, Code(""), GetCode(fmt.Errorf("plain")))
	assert.Equal(t, CodeInvalidCommand, GetCode(InvalidCommand("empty")))

	// Codes survive one level of wrapping.
	wrapped := fmt.Errorf("handling request: %w", TmuxMissing(fmt.Errorf("not in PATH")))
	assert.Equal(t, CodeTmuxMissing, GetCode(wrapped))
}

func TestIs(t *testing.T) {
	err := SessionStopped("session_abc")
	assert.True(t, Is(err, CodeSessionStopped))
	assert.False(t, Is(err, CodeSessionNotFound))
}

func TestWireTokens(t *testing.T) {
	// The wire protocol depends on these exact tokens.
	codes := []Code{
		CodeInitNotFound, CodeSessionNotFound, CodeSessionStopped,
		CodeExtractFailed, CodeCreateFailed, CodeInjectFailed,
		CodeDaemonUnreachable, CodeInvalidCommand, CodeTmuxMissing,
	}
	for i, c := range codes {
		require.Equal(t, fmt.Sprintf("E%03d", i+1), string(c))
	}
}
