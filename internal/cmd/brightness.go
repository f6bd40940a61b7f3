package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/hoppxi/glimmer/pkg/displayinfo"
	"github.com/spf13/cobra"
)

var brightnessCmd = &cobra.Command{
	Use:   "brightness",
	Short: "Set a manual level, override limits or read the current level",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("set") {
			level, _ := cmd.Flags().GetInt("set")
			fmt.Println(send(fmt.Sprintf("MANUAL %d", level)))
		}

		if limits, _ := cmd.Flags().GetString("limits"); limits != "" {
			max, min, err := parseLimits(limits)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println(send(fmt.Sprintf("LIMITS %d %d", max, min)))
		}

		if get, _ := cmd.Flags().GetBool("get"); get {
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				settings, err := manager.Config.Load(configPath)
				if err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				if err := printBacklight(os.Stdout, settings.Device.Name); err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				return
			}

			var r manager.StatusReport
			if err := json.Unmarshal([]byte(send("STATUS")), &r); err != nil {
				fmt.Fprintf(os.Stderr, "Error decoding status: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(r.Current)
		}
	},
}

// printBacklight writes the sysfs view of device (first backlight when empty).
func printBacklight(w io.Writer, device string) error {
	data, err := displayinfo.GetDisplayInfoJSON(device)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseLimits reads "MAX,MIN".
func parseLimits(s string) (max, min int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("limits must look like MAX,MIN, got %q", s)
	}
	if max, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, fmt.Errorf("invalid max: %w", err)
	}
	if min, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, fmt.Errorf("invalid min: %w", err)
	}
	return max, min, nil
}

func init() {
	brightnessCmd.Flags().IntP("set", "s", 0, "Set brightness manually (0-100); pauses automatic control")
	brightnessCmd.Flags().StringP("limits", "l", "", "Override limits as MAX,MIN")
	brightnessCmd.Flags().BoolP("get", "g", false, "Print the current brightness level")
	brightnessCmd.Flags().Bool("json", false, "With --get, print the backlight device, level and raw values as JSON")
}
