package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Send(&protocol.Request{
				Type:      protocol.RequestStop,
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

			var data protocol.StopData
			if err := resp.DecodeData(&data); err != nil {
				return err
			}
			fmt.Printf("Session %s is %s\n", data.SessionID, data.Status)
			return nil
		},
	}
}
