package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id>",
		Short: "Attach to a session's terminal",
		Long:  "Attach the current terminal to the session's tmux session. Detach with the usual tmux prefix (C-b d).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve the tmux session name through the daemon, which
			// also confirms the session exists.
			resp, err := client.Send(&protocol.Request{
				Type:      protocol.RequestStatus,
				SessionID: args[0],
			})
			if err != nil {
				return err
			}
			if !resp.IsSuccess() {
				return responseError(resp)
			}

			var sess session.Session
			if err := resp.DecodeData(&sess); err != nil {
				return err
			}

			attach := exec.Command("tmux", "attach-session", "-t", "="+sess.TmuxSession)
			attach.Stdin = os.Stdin
			attach.Stdout = os.Stdout
			attach.Stderr = os.Stderr
			return attach.Run()
		},
	}
}
