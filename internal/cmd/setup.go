package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hoppxi/glimmer/config"
	"github.com/hoppxi/glimmer/internal/manager"
	"github.com/hoppxi/glimmer/internal/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors glimmer.yaml for writing; durations stay strings.
type fileConfig struct {
	Interval    string       `yaml:"interval"`
	Sensitivity float64      `yaml:"sensitivity"`
	Limits      theme.Limits `yaml:"limits"`
	Theme       string       `yaml:"theme"`
	Themes      theme.Set    `yaml:"themes"`
	Device      struct {
		Backend string `yaml:"backend"`
		Name    string `yaml:"name"`
	} `yaml:"device"`
	Sample struct {
		Tool     string `yaml:"tool"`
		Timeout  string `yaml:"timeout"`
		MaxWidth int    `yaml:"max_width"`
	} `yaml:"sample"`
	Notify bool `yaml:"notify"`
	Log    struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func targetConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return manager.DefaultConfigPath()
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write glimmer.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)
		path := targetConfigPath()

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			fmt.Printf("Warning: config already exists at %s\n", path)
			if !confirm(reader, "Continuing will overwrite it. Proceed?") {
				return
			}
		}

		conf := promptConfig(reader)
		if err := writeConfig(path, conf); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSetup complete! Config written to %s\n", path)
	},
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default glimmer.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)
		path := targetConfigPath()

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			if !confirm(reader, "glimmer.yaml already exists. Overwrite with defaults?") {
				return
			}
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, config.Default(), 0o644); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file written to", path)
	},
}

func promptConfig(reader *bufio.Reader) fileConfig {
	conf := fileConfig{}
	conf.Interval = prompt(reader, "Adjustment interval", "1s")
	conf.Sensitivity = promptFloat(reader, "Sensitivity (1-10)", 7)
	conf.Limits.Max = promptInt(reader, "Maximum brightness %", 80)
	conf.Limits.Min = promptInt(reader, "Minimum brightness %", 20)
	conf.Themes = theme.Defaults()
	conf.Theme = prompt(reader, "Startup theme (empty for limits above)", "")
	conf.Device.Backend = prompt(reader, "Brightness backend (brightnessctl/logind)", "brightnessctl")
	conf.Device.Name = prompt(reader, "Backlight device (empty for first)", "")
	conf.Sample.Tool = prompt(reader, "Screenshot tool (empty for auto)", "")
	conf.Sample.Timeout = "3s"
	conf.Sample.MaxWidth = 320
	conf.Notify = confirm(reader, "Notify when screen capture keeps failing?")
	conf.Log.Level = "info"
	conf.Log.Format = "console"
	return conf
}

func writeConfig(path string, conf fileConfig) error {
	d, err := yaml.Marshal(&conf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func prompt(r *bufio.Reader, label, defaultValue string) string {
	fmt.Printf("%s [%s]: ", label, defaultValue)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func promptInt(r *bufio.Reader, label string, defaultValue int) int {
	for {
		v, err := strconv.Atoi(prompt(r, label, strconv.Itoa(defaultValue)))
		if err == nil {
			return v
		}
		fmt.Println("Please enter a whole number.")
	}
}

func promptFloat(r *bufio.Reader, label string, defaultValue float64) float64 {
	for {
		v, err := strconv.ParseFloat(prompt(r, label, strconv.FormatFloat(defaultValue, 'g', -1, 64)), 64)
		if err == nil {
			return v
		}
		fmt.Println("Please enter a number.")
	}
}

func confirm(r *bufio.Reader, message string) bool {
	fmt.Printf("%s (y/N): ", message)
	input, _ := r.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
