package operation

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/godbus/dbus/v5"
	"github.com/hoppxi/glimmer/pkg/displayinfo"
)

const (
	BackendBrightnessctl = "brightnessctl"
	BackendLogind        = "logind"
)

// Display reads the backlight from sysfs and writes it through the chosen backend.
type Display struct {
	backend string
	device  string

	run func(name string, args ...string) error
}

func NewDisplay(backend, device string) (*Display, error) {
	switch backend {
	case "", BackendBrightnessctl:
		backend = BackendBrightnessctl
	case BackendLogind:
	default:
		return nil, fmt.Errorf("unknown brightness backend %q", backend)
	}

	return &Display{
		backend: backend,
		device:  device,
		run: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%w: %s", err, out)
			}
			return nil
		},
	}, nil
}

func (d *Display) Backend() string { return d.backend }

// Brightness returns the current level (0-100).
func (d *Display) Brightness() (int, error) {
	info, err := displayinfo.GetDisplayInfo(d.device)
	if err != nil {
		return 0, err
	}
	return info.Level, nil
}

// SetBrightness sets the screen brightness level (0-100).
func (d *Display) SetBrightness(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("brightness level %d out of range", level)
	}

	var err error
	switch d.backend {
	case BackendLogind:
		err = d.setLogind(level)
	default:
		err = d.run("brightnessctl", brightnessctlArgs(d.device, level)...)
	}
	if err != nil {
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	return nil
}

func brightnessctlArgs(device string, level int) []string {
	args := []string{"-q"}
	if device != "" {
		args = append(args, "-d", device)
	}
	return append(args, "set", strconv.Itoa(level)+"%")
}

// setLogind asks systemd-logind to write the backlight, which works without
// root for the active session.
func (d *Display) setLogind(level int) error {
	info, err := displayinfo.GetDisplayInfo(d.device)
	if err != nil {
		return err
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.login1", "/org/freedesktop/login1/session/auto")
	return obj.Call("org.freedesktop.login1.Session.SetBrightness", 0,
		"backlight", info.Device, displayinfo.Raw(level, info.Max)).Store()
}
