package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hoppxi/glimmer/internal/theme"
	"github.com/hoppxi/glimmer/pkg/operation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Settings struct {
	Interval    time.Duration `mapstructure:"interval"`
	Sensitivity float64       `mapstructure:"sensitivity"`
	Limits      theme.Limits  `mapstructure:"limits"`
	Theme       string        `mapstructure:"theme"`
	Themes      theme.Set     `mapstructure:"themes"`
	Device      struct {
		Backend string `mapstructure:"backend"`
		Name    string `mapstructure:"name"`
	} `mapstructure:"device"`
	Sample struct {
		Tool     string        `mapstructure:"tool"`
		Timeout  time.Duration `mapstructure:"timeout"`
		MaxWidth int           `mapstructure:"max_width"`
	} `mapstructure:"sample"`
	Notify bool `mapstructure:"notify"`
	Log    struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

type ConfigManager struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

var Config = &ConfigManager{}

// DefaultConfigPath is $XDG_CONFIG_HOME/glimmer/glimmer.yaml.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	return filepath.Join(configDir, "glimmer", "glimmer.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", time.Second)
	v.SetDefault("sensitivity", 7.0)
	v.SetDefault("limits.max", 80)
	v.SetDefault("limits.min", 20)
	v.SetDefault("theme", "")
	for name, l := range theme.Defaults() {
		v.SetDefault("themes."+name+".max", l.Max)
		v.SetDefault("themes."+name+".min", l.Min)
	}
	v.SetDefault("device.backend", operation.BackendBrightnessctl)
	v.SetDefault("device.name", "")
	v.SetDefault("sample.tool", "")
	v.SetDefault("sample.timeout", 3*time.Second)
	v.SetDefault("sample.max_width", 320)
	v.SetDefault("notify", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads path (DefaultConfigPath when empty). A missing file is not an
// error; defaults and GLIMMER_* environment variables still apply.
func (c *ConfigManager) Load(path string) (Settings, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("glimmer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Info().Str("path", path).Msg("no config file, using defaults")
	}

	s, err := decode(v)
	if err != nil {
		return Settings{}, err
	}

	c.mu.Lock()
	c.v = v
	c.path = path
	c.mu.Unlock()
	return s, nil
}

func (c *ConfigManager) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Watch calls onChange with freshly decoded settings whenever the file
// changes. Invalid edits are logged and ignored.
func (c *ConfigManager) Watch(onChange func(Settings)) {
	c.mu.Lock()
	v, path := c.v, c.path
	c.mu.Unlock()

	if v == nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Debug().Str("path", path).Msg("config file absent, not watching")
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		s, err := decode(v)
		if err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("ignoring config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
		onChange(s)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", s.Interval)
	}
	if math.IsNaN(s.Sensitivity) || math.IsInf(s.Sensitivity, 0) || s.Sensitivity < 0 {
		return fmt.Errorf("sensitivity must be a non-negative number, got %v", s.Sensitivity)
	}
	if l := s.Limits; l.Min < 0 || l.Min > l.Max || l.Max > 100 {
		return fmt.Errorf("limits: need 0 <= min <= max <= 100, got min=%d max=%d", l.Min, l.Max)
	}
	if err := s.Themes.Validate(); err != nil {
		return err
	}
	if s.Theme != "" {
		if _, _, ok := s.Themes.Lookup(s.Theme); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", s.Theme, strings.Join(s.Themes.Names(), ", "))
		}
	}
	switch s.Device.Backend {
	case operation.BackendBrightnessctl, operation.BackendLogind:
	default:
		return fmt.Errorf("unknown device backend %q", s.Device.Backend)
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", s.Log.Format)
	}
	return nil
}

// StartupLimits resolves the configured theme, falling back to limits.
func (s Settings) StartupLimits() (name string, l theme.Limits) {
	if s.Theme != "" {
		if name, l, ok := s.Themes.Lookup(s.Theme); ok {
			return name, l
		}
	}
	return "", s.Limits
}
