// Package capture grabs the primary display with an external screenshot tool.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Order matters: wayland first, then X11 tools.
var tools = []string{"grim", "gnome-screenshot", "scrot", "import"}

func toolArgs(tool, out string) []string {
	switch tool {
	case "grim":
		return []string{out}
	case "gnome-screenshot":
		return []string{"-f", out}
	case "scrot":
		return []string{"-o", out}
	case "import":
		return []string{"-window", "root", out}
	}
	return nil
}

// Capturer implements controller.Sampler.
type Capturer struct {
	tool    string
	timeout time.Duration
	tempDir string
}

// New resolves tool on PATH, or the first known tool when tool is empty.
func New(tool string, timeout time.Duration) (*Capturer, error) {
	resolved, err := resolve(tool)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "glimmer-screen-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	log.Debug().Str("tool", resolved).Str("dir", tmpDir).Msg("screen capturer ready")
	return &Capturer{tool: resolved, timeout: timeout, tempDir: tmpDir}, nil
}

func resolve(tool string) (string, error) {
	if tool != "" {
		if toolArgs(tool, "") == nil {
			return "", fmt.Errorf("unsupported screenshot tool %q (supported: %v)", tool, tools)
		}
		if _, err := exec.LookPath(tool); err != nil {
			return "", fmt.Errorf("screenshot tool %q not found: %w", tool, err)
		}
		return tool, nil
	}

	for _, t := range tools {
		if _, err := exec.LookPath(t); err == nil {
			return t, nil
		}
	}
	return "", fmt.Errorf("no screenshot tool found (install one of %v)", tools)
}

func (c *Capturer) Tool() string { return c.tool }

// Sample captures the screen and decodes it.
func (c *Capturer) Sample() (image.Image, error) {
	out := filepath.Join(c.tempDir, "screenshot.png")
	defer os.Remove(out)

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.tool, toolArgs(c.tool, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", c.tool, err, bytes.TrimSpace(stderr.Bytes()))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot failed: %w", err)
	}
	return img, nil
}

// Close removes the temp directory.
func (c *Capturer) Close() {
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}
