package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the config file and apply its limits",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(send("RELOAD"))
	},
}
