package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/config"
)

func newLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <session-id>",
		Short: "Print a session's captured output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := config.BaseDir()
			if err != nil {
				return err
			}
			logPath := config.Default(baseDir).SessionLogPath(args[0])

			if !follow {
				file, err := os.Open(logPath)
				if err != nil {
					return fmt.Errorf("no log for session %s: %w", args[0], err)
				}
				defer file.Close()
				_, err = io.Copy(os.Stdout, file)
				return err
			}

			t, err := tail.TailFile(logPath, tail.Config{
				Follow: true,
				ReOpen: true,
				Logger: tail.DiscardingLogger,
			})
			if err != nil {
				return fmt.Errorf("failed to follow log for session %s: %w", args[0], err)
			}
			for line := range t.Lines {
				if line.Err != nil {
					return line.Err
				}
				fmt.Println(line.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log as it grows")
	return cmd
}
