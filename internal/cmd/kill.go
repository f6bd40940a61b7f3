package cmd

import (
	"fmt"
	"strings"

	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		response, err := manager.Manage.SendIPCCommand("STOP")
		if err != nil {
			fmt.Printf("Error: %v (Is the daemon running?)\n", err)
			return
		}

		fmt.Printf("Server response: %s\n", response)

		if strings.Contains(response, "OK") {
			fmt.Println("Glimmer daemon successfully shut down.")
		}
	},
}
