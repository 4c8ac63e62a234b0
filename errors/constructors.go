package errors

import (
	"fmt"
)

// InitNotFound creates an E001 error for a missing initialization source.
func InitNotFound(path string) *DaemonError {
	return New(CodeInitNotFound, fmt.Sprintf("Initialization source not found: %s", path))
}

// SessionNotFound creates an E002 error for an unknown session id.
func SessionNotFound(sessionID string) *DaemonError {
	return New(CodeSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID))
}

// SessionStopped creates an E003 error for an operation against a stopped session.
func SessionStopped(sessionID string) *DaemonError {
	return New(CodeSessionStopped, fmt.Sprintf("Session %s is stopped, cannot operate", sessionID))
}

// ExtractFailed creates an E004 error for a failed archive extraction.
func ExtractFailed(archive string, err error) *DaemonError {
	return Wrap(err, CodeExtractFailed, fmt.Sprintf("Failed to extract archive: %s", archive))
}

// CreateFailed creates an E005 error for a failed session creation.
func CreateFailed(err error) *DaemonError {
	return Wrap(err, CodeCreateFailed, err.Error())
}

// InjectFailed creates an E006 error for a failed message injection.
func InjectFailed(err error) *DaemonError {
	return Wrap(err, CodeInjectFailed, err.Error())
}

// DaemonUnreachable creates an E007 error when the daemon cannot be reached.
func DaemonUnreachable(err error) *DaemonError {
	return Wrap(err, CodeDaemonUnreachable, err.Error())
}

// InvalidCommand creates an E008 error for an empty or invalid CLI command.
func InvalidCommand(reason string) *DaemonError {
	return New(CodeInvalidCommand, fmt.Sprintf("Invalid CLI command: %s", reason))
}

// TmuxMissing creates an E009 error when tmux is absent or too old.
func TmuxMissing(err error) *DaemonError {
	return Wrap(err, CodeTmuxMissing, err.Error())
}
