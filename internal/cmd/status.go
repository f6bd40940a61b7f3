package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/hoppxi/glimmer/internal/watchers"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller state and the last adjustment",
	Run: func(cmd *cobra.Command, args []string) {
		payload := send("STATUS")

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			fmt.Println(payload)
			return
		}

		var r manager.StatusReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding status: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(renderStatus(r))
	},
}

func renderStatus(r manager.StatusReport) string {
	mode := "automatic"
	if r.Paused {
		mode = "paused"
		if r.ManualBrightness != nil {
			mode = fmt.Sprintf("manual (%d%%)", *r.ManualBrightness)
		}
	}

	theme := r.Theme
	if theme == "" {
		theme = "custom"
	}

	out := fmt.Sprintf("Mode: %s\nTheme: %s (max %d%%, min %d%%)\nSensitivity: %g every %s\nCurrent Brightness: %d%%\n",
		mode, theme, r.MaxLimit, r.MinLimit, r.Sensitivity, r.Interval, r.Current)
	if r.Last != nil {
		out += watchers.FormatAdjustment(*r.Last) + "\n"
	}
	if r.ErrorStreak > 0 {
		out += fmt.Sprintf("Capture failures: %d in a row\n", r.ErrorStreak)
	}
	return out
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print the raw JSON status")
}
