package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/client"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
)

func newInjectCmd() *cobra.Command {
	var (
		message string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "inject <session-id>",
		Short: "Inject a message into a running session",
		Long:  "Type a message into the session's terminal as if entered at the keyboard, followed by a submit keypress.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (message == "") == (file == "") {
				return fmt.Errorf("exactly one of --message or --file is required")
			}

			text := message
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read message file: %w", err)
				}
				text = string(data)
			}

			resp, err := client.Send(&protocol.Request{
				Type:      protocol.RequestInject,
				SessionID: args[0],
				Message:   text,
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

			var data protocol.InjectData
			if err := resp.DecodeData(&data); err != nil {
				return err
			}
			fmt.Printf("Injected %d bytes into session %s\n", data.MessageLength, data.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Message text to inject")
	cmd.Flags().StringVar(&file, "file", "", "Read the message from a file")
	return cmd
}
