package cli

import (
	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session's live status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if printJSON(cmd, resp) {
				return nil
			}

			var sess session.Session
			if err := resp.DecodeData(&sess); err != nil {
				return err
			}
			printSessionDetail(&sess)
			return nil
		},
	}
}
