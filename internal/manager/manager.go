package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hoppxi/glimmer/internal/controller"
	"github.com/hoppxi/glimmer/internal/watchers"
	"github.com/rs/zerolog/log"
)

// StatusReport is the STATUS reply payload.
type StatusReport struct {
	controller.Status
	Theme       string                 `json:"theme,omitempty"`
	Current     int                    `json:"current"`
	Sensitivity float64                `json:"sensitivity"`
	Interval    string                 `json:"interval"`
	Last        *controller.Adjustment `json:"last,omitempty"`
}

type AppManager struct {
	mu       sync.Mutex
	stops    []chan struct{}
	wg       sync.WaitGroup
	started  bool
	ctrl     *controller.Controller
	settings Settings
	theme    string
	last     *controller.Adjustment
	cleanup  []func()
	listener net.Listener

	done     chan struct{}
	doneOnce sync.Once
}

// Commands are single short lines; replies are read until the daemon closes
// the connection.
const maxCommandSize = 256

var Manage = &AppManager{}

func getSocketPath() string {
	var baseDir string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		baseDir = runtimeDir
	} else {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, "glimmer")
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), "glimmer-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

// Init wires the controller and applies the startup limits. cleanup runs on StopAll.
func (m *AppManager) Init(ctrl *controller.Controller, s Settings, cleanup ...func()) error {
	m.mu.Lock()
	m.ctrl = ctrl
	m.cleanup = append(m.cleanup, cleanup...)
	m.mu.Unlock()

	return m.ApplySettings(s)
}

// ApplySettings swaps in new settings and pushes their limits to the controller.
func (m *AppManager) ApplySettings(s Settings) error {
	name, l := s.StartupLimits()
	if err := m.ctrl.SetLimits(l.Max, l.Min); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = s
	m.theme = name
	m.mu.Unlock()

	log.Info().Str("theme", name).Int("max", l.Max).Int("min", l.Min).
		Float64("sensitivity", s.Sensitivity).Dur("interval", s.Interval).
		Msg("settings applied")
	return nil
}

func (m *AppManager) tickSettings() watchers.TickSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return watchers.TickSettings{
		Interval:    m.settings.Interval,
		Sensitivity: m.settings.Sensitivity,
		Notify:      m.settings.Notify,
	}
}

func (m *AppManager) recordTick(a controller.Adjustment) {
	m.mu.Lock()
	m.last = &a
	m.mu.Unlock()
}

func (m *AppManager) StartIPCServer() {
	socketPath := getSocketPath()
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		log.Fatal().Err(err).Msg("error listening on socket")
	}
	defer listener.Close()

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	log.Info().Str("socket", socketPath).Msg("IPC server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go m.handleConnection(conn)
	}
}

func (m *AppManager) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, maxCommandSize)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	command := strings.TrimSpace(string(buf[:n]))

	if command == "STOP" {
		log.Info().Msg("received STOP via IPC, shutting down")
		_, _ = conn.Write([]byte("OK: Shutting down."))

		// Close immediately so client doesn't hang
		_ = conn.Close()

		go func() {
			m.StopAll()
			m.doneOnce.Do(func() { close(m.stopped()) })
		}()
		return
	}

	_, _ = conn.Write([]byte(m.Dispatch(command)))
}

// Dispatch runs one IPC command and returns the reply line.
func (m *AppManager) Dispatch(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "ERR: empty command"
	}
	args := fields[1:]

	switch strings.ToUpper(fields[0]) {
	case "STATUS":
		data, err := json.Marshal(m.Report())
		if err != nil {
			return "ERR: " + err.Error()
		}
		return "OK: " + string(data)

	case "START":
		return m.start()

	case "RELOAD":
		s, err := Config.Load(Config.Path())
		if err != nil {
			return "ERR: " + err.Error()
		}
		if err := m.ApplySettings(s); err != nil {
			return "ERR: " + err.Error()
		}
		return "OK: reloaded"

	case "PAUSE":
		m.ctrl.Pause()
		return "OK: paused"

	case "RESUME":
		m.ctrl.Resume()
		return "OK: resumed"

	case "TOGGLE":
		if m.ctrl.Paused() {
			m.ctrl.Resume()
			return "OK: resumed"
		}
		m.ctrl.Pause()
		return "OK: paused"

	case "THEME":
		if len(args) != 1 {
			return "ERR: usage: THEME <name>"
		}
		return m.setTheme(args[0])

	case "MANUAL":
		if len(args) != 1 {
			return "ERR: usage: MANUAL <0-100>"
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Sprintf("ERR: invalid level %q", args[0])
		}
		return m.setManual(level)

	case "LIMITS":
		if len(args) != 2 {
			return "ERR: usage: LIMITS <max> <min>"
		}
		max, errMax := strconv.Atoi(args[0])
		min, errMin := strconv.Atoi(args[1])
		if errMax != nil || errMin != nil {
			return "ERR: limits must be integers"
		}
		if err := m.ctrl.SetLimits(max, min); err != nil {
			return "ERR: " + err.Error()
		}
		m.mu.Lock()
		m.theme = ""
		m.mu.Unlock()
		return fmt.Sprintf("OK: limits max %d, min %d", max, min)
	}

	return "ERR: unknown command"
}

func (m *AppManager) Report() StatusReport {
	m.mu.Lock()
	r := StatusReport{
		Theme:       m.theme,
		Sensitivity: m.settings.Sensitivity,
		Interval:    m.settings.Interval.String(),
	}
	if m.last != nil {
		last := *m.last
		r.Last = &last
	}
	m.mu.Unlock()

	r.Status = m.ctrl.Status()
	r.Current = m.ctrl.CurrentBrightness()
	return r
}

func (m *AppManager) setTheme(name string) string {
	m.mu.Lock()
	themes := m.settings.Themes
	m.mu.Unlock()

	canonical, l, ok := themes.Lookup(name)
	if !ok {
		return fmt.Sprintf("ERR: unknown theme %q (available: %s)", name, strings.Join(themes.Names(), ", "))
	}
	if err := m.ctrl.SetLimits(l.Max, l.Min); err != nil {
		return "ERR: " + err.Error()
	}

	m.mu.Lock()
	m.theme = canonical
	m.mu.Unlock()
	return fmt.Sprintf("OK: theme %s (max %d, min %d)", canonical, l.Max, l.Min)
}

// setManual pauses automatic control so the next tick does not overwrite the level.
func (m *AppManager) setManual(level int) string {
	wasPaused := m.ctrl.Paused()
	m.ctrl.Pause()

	if err := m.ctrl.SetManualBrightness(level); err != nil {
		if !wasPaused {
			m.ctrl.Resume()
		}
		return "ERR: " + err.Error()
	}
	if applied := m.ctrl.Status().ManualBrightness; applied == nil || *applied != level {
		return "ERR: display rejected the brightness change"
	}
	return fmt.Sprintf("OK: manual brightness %d (automatic control paused)", level)
}

func (m *AppManager) start() string {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return "OK: Already started"
	}
	m.started = true
	device := m.settings.Device.Name
	m.mu.Unlock()

	log.Info().Msg("received START via IPC, starting watchers")

	Config.Watch(func(s Settings) {
		if err := m.ApplySettings(s); err != nil {
			log.Error().Err(err).Msg("failed to apply reloaded settings")
		}
	})

	m.StartWatcher(watchers.StartAdjustWatcher(m.ctrl, m.tickSettings, m.recordTick))
	m.StartWatcher(watchers.StartDisplayWatcher(device))

	return "OK: Starting"
}

func (m *AppManager) StartWatcher(f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Msg("watcher panic")
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				log.Warn().Msg("restarting watcher")
			}
		}
	}()
}

func (m *AppManager) StopAll() {
	m.mu.Lock()
	stops := m.stops
	cleanup := m.cleanup
	listener := m.listener
	m.stops = nil
	m.cleanup = nil
	m.listener = nil
	m.started = false
	m.mu.Unlock()

	for _, s := range stops {
		close(s)
	}
	m.wg.Wait()

	if listener != nil {
		_ = listener.Close()
	}
	for _, f := range cleanup {
		f()
	}
}

// Done is closed once a STOP request has shut the daemon down.
func (m *AppManager) Done() <-chan struct{} {
	return m.stopped()
}

func (m *AppManager) stopped() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		m.done = make(chan struct{})
	}
	return m.done
}

func (m *AppManager) ConnectIPC() (net.Conn, error) {
	return net.DialTimeout("unix", getSocketPath(), 500*time.Millisecond)
}

func (m *AppManager) SendIPCCommand(cmd string) (string, error) {
	conn, err := m.ConnectIPC()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(reply), nil
}
