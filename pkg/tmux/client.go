// Package tmux wraps the external tmux binary. The daemon deliberately
// shells out instead of linking a library so that tmux sessions outlive the
// daemon and the daemon can restart freely.
package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/JhihJian/SUMM-Daemon/command"
)

// Client issues tmux subcommands. It holds no session state.
type Client struct {
	builder *command.SafeBuilder
	socket  string // Socket name for a dedicated tmux server (uses -L flag)
}

// NewClient creates a tmux client using the default server socket, or the
// dedicated server named by SUMM_TMUX_SOCKET (passed as -L) when that is set.
func NewClient() (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux command not found in PATH: %w", err)
	}

	socket := os.Getenv("SUMM_TMUX_SOCKET")
	return &Client{
		builder: command.NewSafeBuilder(),
		socket:  socket,
	}, nil
}

// NewClientWithExecutor creates a client with a custom command executor,
// used by tests to intercept tmux invocations.
func NewClientWithExecutor(exec command.Executor) *Client {
	return &Client{
		builder: command.NewSafeBuilderWithExecutor(exec),
	}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}

	cmd, err := c.builder.Build(ctx, "tmux", args...)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}

	output, err := cmd.Exec().CombinedOutput()
	if err != nil {
		cmdStr := "tmux " + strings.Join(args, " ")
		return string(output), fmt.Errorf("tmux command failed: `%s`: %w, output: %s", cmdStr, err, string(output))
	}

	return string(output), nil
}
