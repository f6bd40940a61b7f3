package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var (
	configPath string
	logLevel   string
)

// Commands that work without a running daemon.
var standalone = map[string]bool{
	"start":           true,
	"setup":           true,
	"generate-config": true,
	"help":            true,
	"glimmer":         true,
}

var rootCmd = &cobra.Command{
	Use:     "glimmer",
	Version: Version,
	Short:   "Glimmer adapts screen brightness to what is on screen",
	Long:    "Glimmer samples the screen periodically and sets the backlight from its mean luminance, within theme limits",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel, "console")

		if standalone[cmd.Name()] {
			return
		}

		conn, err := manager.Manage.ConnectIPC()
		if err != nil {
			fmt.Println("Error:", err)
			fmt.Println("Hint: run `glimmer start` first")
			os.Exit(1)
		}
		conn.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/glimmer/glimmer.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(brightnessCmd)
}

// setupLogging configures the global zerolog logger. An empty level keeps info.
func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// send forwards one IPC command and prints the reply, exiting non-zero on ERR.
func send(command string) string {
	response, err := manager.Manage.SendIPCCommand(command)
	if err != nil {
		fmt.Printf("Error: %v (Is the daemon running?)\n", err)
		os.Exit(1)
	}

	if strings.HasPrefix(response, "ERR") {
		fmt.Println(response)
		os.Exit(1)
	}
	return strings.TrimSpace(strings.TrimPrefix(response, "OK:"))
}
