package displayinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BacklightRoot is where the kernel exposes backlight devices.
var BacklightRoot = "/sys/class/backlight"

var ErrNoBacklight = errors.New("no backlight devices found")

type DisplayInfo struct {
	Device string `json:"device"`
	Level  int    `json:"level"`
	Raw    int    `json:"raw"`
	Max    int    `json:"max"`
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	return strconv.Atoi(s)
}

// DevicePath returns the sysfs directory for name, or the first device when
// name is empty.
func DevicePath(name string) (string, error) {
	if name != "" {
		path := filepath.Join(BacklightRoot, name)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("backlight %q: %w", name, err)
		}
		return path, nil
	}

	paths, err := filepath.Glob(filepath.Join(BacklightRoot, "*"))
	if err != nil || len(paths) == 0 {
		return "", ErrNoBacklight
	}
	return paths[0], nil
}

func GetDisplayInfo(name string) (*DisplayInfo, error) {
	device, err := DevicePath(name)
	if err != nil {
		return nil, err
	}

	current, err := readInt(filepath.Join(device, "brightness"))
	if err != nil {
		return nil, err
	}

	maxVal, err := readInt(filepath.Join(device, "max_brightness"))
	if err != nil {
		return nil, err
	}

	if maxVal <= 0 {
		return nil, errors.New("invalid max_brightness value")
	}

	return &DisplayInfo{
		Device: filepath.Base(device),
		Level:  Percent(current, maxVal),
		Raw:    current,
		Max:    maxVal,
	}, nil
}

// Percent converts a raw backlight value to 0-100.
func Percent(raw, maxVal int) int {
	percent := int(float64(raw) / float64(maxVal) * 100.0)
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return percent
}

// Raw converts a 0-100 level to the device's raw scale.
func Raw(level, maxVal int) uint32 {
	return uint32(level * maxVal / 100)
}

func GetDisplayInfoJSON(name string) ([]byte, error) {
	info, err := GetDisplayInfo(name)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(info, "", "  ")
}
