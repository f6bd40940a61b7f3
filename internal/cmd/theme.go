package cmd

import (
	"fmt"
	"os"

	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Apply a brightness limit preset",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		list, _ := cmd.Flags().GetBool("list")
		selectTheme, _ := cmd.Flags().GetBool("select")

		if list || selectTheme {
			settings, err := manager.Config.Load(configPath)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}

			if list {
				for _, name := range settings.Themes.Names() {
					l := settings.Themes[name]
					fmt.Printf("%-12s max %3d%%  min %3d%%\n", name, l.Max, l.Min)
				}
				return
			}

			name, err := zenity.List("Choose a brightness theme", settings.Themes.Names(),
				zenity.Title("glimmer"), zenity.DisallowEmpty())
			if err == zenity.ErrCanceled {
				return
			}
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println(send("THEME " + name))
			return
		}

		if len(args) == 0 {
			cmd.Help()
			return
		}
		fmt.Println(send("THEME " + args[0]))
	},
}

func init() {
	themeCmd.Flags().BoolP("list", "l", false, "List available themes")
	themeCmd.Flags().BoolP("select", "s", false, "Pick a theme from a dialog")
}
