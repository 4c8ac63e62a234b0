package tmux

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CreateSession starts a new detached session running command in workdir.
// The env overlay is applied to the session's environment.
func (c *Client) CreateSession(ctx context.Context, name, workdir, cmd string, env map[string]string) error {
	args := []string{"new-session", "-d", "-s", name, "-c", workdir}

	// Deterministic order keeps invocations reproducible in logs and tests.
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+env[k])
	}

	args = append(args, cmd)
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to create session %s: %w", name, err)
	}
	return nil
}

// SessionExists reports whether a session of the given name exists.
func (c *Client) SessionExists(ctx context.Context, name string) bool {
	_, err := c.run(ctx, "has-session", "-t", "="+name)
	return err == nil
}

// PanePID returns the process id of the session's primary pane, or nil if it
// cannot be determined.
func (c *Client) PanePID(ctx context.Context, name string) *int {
	output, err := c.run(ctx, "list-panes", "-t", name, "-F", "#{pane_pid}")
	if err != nil {
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(strings.Split(output, "\n")[0]))
	if err != nil {
		return nil
	}
	return &pid
}

// SendKeys feeds text to the session as if typed at the keyboard. When
// submit is true, an Enter keypress follows.
func (c *Client) SendKeys(ctx context.Context, name, text string, submit bool) error {
	args := []string{"send-keys", "-t", name, text}
	if submit {
		args = append(args, "Enter")
	}
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to send keys to session %s: %w", name, err)
	}
	return nil
}

// KillSession terminates the session. Killing a session that does not exist
// is treated as success.
func (c *Client) KillSession(ctx context.Context, name string) error {
	_, err := c.run(ctx, "kill-session", "-t", "="+name)
	if err != nil && !c.SessionExists(ctx, name) {
		return nil
	}
	return err
}

// ListOwned enumerates existing sessions whose name begins with prefix.
func (c *Client) ListOwned(ctx context.Context, prefix string) ([]string, error) {
	output, err := c.run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		// tmux exits non-zero when no server is running.
		if strings.Contains(err.Error(), "no server running") || strings.Contains(err.Error(), "exit status 1") {
			return nil, nil
		}
		return nil, err
	}

	var owned []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line != "" && strings.HasPrefix(line, prefix) {
			owned = append(owned, line)
		}
	}
	return owned, nil
}

// EnableLogging pipes the session's pane output to logPath, appending.
func (c *Client) EnableLogging(ctx context.Context, name, logPath string) error {
	pipeCmd := fmt.Sprintf("cat >> %s", logPath)
	if _, err := c.run(ctx, "pipe-pane", "-t", name, pipeCmd); err != nil {
		return fmt.Errorf("failed to enable logging for session %s: %w", name, err)
	}
	return nil
}

// CapturePane returns the last lines of the session's pane history.
func (c *Client) CapturePane(ctx context.Context, name string, lines int) (string, error) {
	output, err := c.run(ctx, "capture-pane", "-t", name, "-p", "-S", strconv.Itoa(-lines))
	if err != nil {
		return "", fmt.Errorf("failed to capture pane of session %s: %w", name, err)
	}
	return output, nil
}
