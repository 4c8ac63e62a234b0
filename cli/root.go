// Package cli implements the summ client command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/errors"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/version"
)

// NewRootCommand builds the summ command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "summ",
		Short:         "Client for the summ session daemon",
		Long:          "summ manages long-lived agent CLI sessions hosted by the summ daemon.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().Bool("json", false, "Output raw JSON responses")

	cmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newListCmd(),
		newStatusCmd(),
		newInjectCmd(),
		newAttachCmd(),
		newLogsCmd(),
		newDaemonCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command, printing daemon errors with their wire code
// and exiting non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		if code := errors.GetCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// responseError converts a wire Error response into a client-side error
// carrying the same code.
func responseError(resp *protocol.Response) error {
	return errors.New(errors.Code(resp.Code), resp.Message)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo().String())
		},
	}
}
