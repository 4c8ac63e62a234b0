package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

func renderStatus(status session.Status) string {
	switch status {
	case session.StatusRunning:
		return runningStyle.Render(string(status))
	case session.StatusIdle:
		return idleStyle.Render(string(status))
	default:
		return stoppedStyle.Render(string(status))
	}
}

// printJSON writes the raw Success payload when --json is set. Returns true
// if it handled the output.
func printJSON(cmd *cobra.Command, resp *protocol.Response) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if !jsonOut {
		return false
	}
	var pretty json.RawMessage = resp.Data
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		out = resp.Data
	}
	fmt.Println(string(out))
	return true
}

func printSessionList(infos []session.Info) {
	if len(infos) == 0 {
		fmt.Println("No sessions.")
		return
	}

	rows := make([][]string, 0, len(infos)+1)
	rows = append(rows, []string{"SESSION", "NAME", "STATUS", "CLI", "CREATED"})
	for _, info := range infos {
		rows = append(rows, []string{
			info.SessionID,
			info.Name,
			string(info.Status),
			info.CLI,
			info.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for r, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-len(cell)+2)
			switch {
			case r == 0:
				padded = headerStyle.Render(padded)
			case i == 2:
				padded = renderStatus(session.Status(cell)) + strings.Repeat(" ", widths[i]-len(cell)+2)
			}
			b.WriteString(padded)
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}
}

func printSessionDetail(sess *session.Session) {
	field := func(label, value string) {
		fmt.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label+":")), value)
	}

	field("Session", sess.SessionID)
	field("Name", sess.Name)
	field("Status", renderStatus(sess.Status))
	field("CLI", sess.CLI)
	field("Workdir", sess.Workdir)
	field("Init source", sess.InitSource)
	if sess.PID != nil {
		field("PID", fmt.Sprintf("%d", *sess.PID))
	} else {
		field("PID", "-")
	}
	field("Created", sess.CreatedAt.Local().Format(time.RFC3339))
	field("Last activity", sess.LastActivity.Local().Format(time.RFC3339))
}

// expandPath expands a leading ~ and makes the path absolute. The daemon
// only ever sees absolute paths.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
