package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoppxi/glimmer/internal/capture"
	"github.com/hoppxi/glimmer/internal/controller"
	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/hoppxi/glimmer/pkg/operation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brightness daemon",
	Run: func(cmd *cobra.Command, args []string) {
		if conn, err := manager.Manage.ConnectIPC(); err == nil {
			defer conn.Close()
			fmt.Println("Daemon already running. Sending start command...")
			if _, err := manager.Manage.SendIPCCommand("START"); err != nil {
				fmt.Printf("Failed to send start command: %v\n", err)
			}
			return
		}

		settings, err := manager.Config.Load(configPath)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		level := logLevel
		if level == "" {
			level = settings.Log.Level
		}
		setupLogging(level, settings.Log.Format)

		capturer, err := capture.New(settings.Sample.Tool, settings.Sample.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("screen capture unavailable")
		}

		display, err := operation.NewDisplay(settings.Device.Backend, settings.Device.Name)
		if err != nil {
			capturer.Close()
			log.Fatal().Err(err).Msg("display backend unavailable")
		}

		ctrl := controller.New(capturer, display,
			controller.WithLogger(log.Logger),
			controller.WithSampleWidth(settings.Sample.MaxWidth),
		)
		if err := manager.Manage.Init(ctrl, settings, capturer.Close); err != nil {
			capturer.Close()
			log.Fatal().Err(err).Msg("invalid startup limits")
		}

		log.Info().
			Str("tool", capturer.Tool()).
			Str("backend", display.Backend()).
			Int("brightness", ctrl.CurrentBrightness()).
			Msg("starting daemon")

		go manager.Manage.StartIPCServer()

		time.Sleep(100 * time.Millisecond)

		if _, err := manager.Manage.SendIPCCommand("START"); err != nil {
			fmt.Printf("Failed to initialize daemon: %v\n", err)
			manager.Manage.StopAll()
			return
		}

		fmt.Println("Daemon started successfully. Press Ctrl+C to stop.")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigChan:
			fmt.Println("\nReceived shutdown signal, stopping watchers...")
			manager.Manage.StopAll()
		case <-manager.Manage.Done():
			log.Info().Msg("daemon stopped over IPC")
		}
	},
}
