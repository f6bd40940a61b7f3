package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause automatic brightness adjustment",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(send("PAUSE"))
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume automatic adjustment and drop any manual level",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(send("RESUME"))
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between paused and automatic",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(send("TOGGLE"))
	},
}
