package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check whether the daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Send(&protocol.Request{Type: protocol.RequestDaemonStatus})
			if err != nil {
				return err
			}
			if !resp.IsSuccess() {
				return responseError(resp)
			}
			if printJSON(cmd, resp) {
				return nil
			}

			var data protocol.DaemonStatusData
			if err := resp.DecodeData(&data); err != nil {
				return err
			}
			fmt.Printf("Daemon running (version %s), %d active session(s)\n", data.Version, data.SessionCount)
			return nil
		},
	})

	return cmd
}
