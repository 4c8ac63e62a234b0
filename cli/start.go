package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

func newStartCmd() *cobra.Command {
	var (
		cliCmd   string
		initPath string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "start --cli <command> --init <path>",
		Short: "Start a new session",
		Long:  "Start a new hosted CLI session. The workspace is materialized from --init, which may be a directory, a .zip archive, or a .tar.gz archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			expanded, err := expandPath(initPath)
			if err != nil {
				return err
			}

			resp, err := client.Send(&protocol.Request{
				Type: protocol.RequestStart,
				CLI:  cliCmd,
				Init: expanded,
				Name: name,
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
			fmt.Printf("Started session %s\n", sess.SessionID)
			printSessionDetail(&sess)
			return nil
		},
	}

	cmd.Flags().StringVar(&cliCmd, "cli", "", "CLI command to host (required)")
	cmd.Flags().StringVar(&initPath, "init", "", "Initialization source: directory, .zip, or .tar.gz (required)")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable session name")
	_ = cmd.MarkFlagRequired("cli")
	_ = cmd.MarkFlagRequired("init")

	return cmd
}
