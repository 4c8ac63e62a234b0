package cli

import (
	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

func newListCmd() *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Send(&protocol.Request{
				Type:         protocol.RequestList,
				StatusFilter: statusFilter,
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

			var data struct {
				Sessions []session.Info `json:"sessions"`
			}
			if err := resp.DecodeData(&data); err != nil {
				return err
			}
			printSessionList(data.Sessions)
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status: running, idle, or stopped")
	return cmd
}
