// Package controller turns ambient screen luminance into a display brightness level.
package controller

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxLimit = 80
	DefaultMinLimit = 20

	// StaleSampleLimit bounds how many consecutive sampler failures may be
	// answered with the last good sample.
	StaleSampleLimit = 3
)

// Sampler captures the current display contents.
type Sampler interface {
	Sample() (image.Image, error)
}

// Device reads and writes the primary monitor brightness as a 0-100 level.
type Device interface {
	Brightness() (int, error)
	SetBrightness(level int) error
}

// Adjustment is the outcome of one tick. The zero value means nothing was applied.
type Adjustment struct {
	Ambient float64 `json:"ambient"`
	Target  float64 `json:"target"`
}

// Suppressed reports whether the tick left the display untouched.
func (a Adjustment) Suppressed() bool {
	return a == Adjustment{}
}

// Status is a point-in-time copy of the controller state.
type Status struct {
	Paused           bool     `json:"paused"`
	MaxLimit         int      `json:"max_limit"`
	MinLimit         int      `json:"min_limit"`
	ManualBrightness *int     `json:"manual_brightness,omitempty"`
	LastSample       *float64 `json:"last_sample,omitempty"`
	ErrorStreak      int      `json:"error_streak"`
}

type Option func(*Controller)

// WithLogger sets the logger used for swallowed operational errors.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithSampleWidth downscales captures wider than w pixels before averaging.
// Zero keeps full resolution.
func WithSampleWidth(w int) Option {
	return func(c *Controller) { c.sampleWidth = w }
}

type Controller struct {
	sampler     Sampler
	device      Device
	log         zerolog.Logger
	sampleWidth int

	mu          sync.Mutex
	paused      bool
	maxLimit    int
	minLimit    int
	manual      *int
	lastSample  *float64
	errorStreak int
}

func New(sampler Sampler, device Device, opts ...Option) *Controller {
	c := &Controller{
		sampler:  sampler,
		device:   device,
		log:      zerolog.Nop(),
		maxLimit: DefaultMaxLimit,
		minLimit: DefaultMinLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLimits replaces both limits or neither.
func (c *Controller) SetLimits(max, min int) error {
	if err := validLimits(max, min); err != nil {
		return err
	}

	c.mu.Lock()
	c.maxLimit = max
	c.minLimit = min
	c.mu.Unlock()
	return nil
}

func (c *Controller) Limits() (max, min int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxLimit, c.minLimit
}

func (c *Controller) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume re-enables automatic control and drops any manual override.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.manual = nil
	c.mu.Unlock()
}

func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Paused:      c.paused,
		MaxLimit:    c.maxLimit,
		MinLimit:    c.minLimit,
		ErrorStreak: c.errorStreak,
	}
	if c.manual != nil {
		v := *c.manual
		s.ManualBrightness = &v
	}
	if c.lastSample != nil {
		v := *c.lastSample
		s.LastSample = &v
	}
	return s
}

// SampleAmbientBrightness returns the mean luminance (0-255) of the current
// screen. A failed capture falls back to the last good sample while fewer than
// StaleSampleLimit failures have happened in a row.
func (c *Controller) SampleAmbientBrightness() (float64, error) {
	ambient, err := c.readSampler()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordSample(ambient, err)
}

// recordSample folds one capture result into the fallback state. c.mu must be held.
func (c *Controller) recordSample(ambient float64, err error) (float64, error) {
	if err == nil {
		c.lastSample = &ambient
		c.errorStreak = 0
		return ambient, nil
	}

	c.errorStreak++
	c.log.Warn().Err(err).Int("attempt", c.errorStreak).Msg("screen capture failed")

	if c.lastSample != nil && c.errorStreak < StaleSampleLimit {
		return *c.lastSample, nil
	}
	return 0, fmt.Errorf("%w: %d consecutive failures: %v", ErrSampleUnavailable, c.errorStreak, err)
}

func (c *Controller) readSampler() (float64, error) {
	img, err := c.sampler.Sample()
	if err != nil {
		return 0, err
	}
	return MeanLuminance(img, c.sampleWidth)
}

// ComputeTarget maps ambient luminance to an unclamped brightness percentage.
// The mapping is inverse: brighter content and higher sensitivity both lower
// the target.
func ComputeTarget(ambient, sensitivity float64) (float64, error) {
	if !finite(ambient) || !finite(sensitivity) {
		return 0, fmt.Errorf("%w: ambient=%v sensitivity=%v", ErrCompute, ambient, sensitivity)
	}

	target := (1 - ambient*sensitivity/2550) * 100
	if !finite(target) {
		return 0, fmt.Errorf("%w: result %v", ErrCompute, target)
	}
	return target, nil
}

// Adjust runs one control cycle against the given limits. Any failure, or a
// paused controller, yields the zero Adjustment. The capture runs without
// holding the state lock; at most one Adjust may be in flight.
func (c *Controller) Adjust(sensitivity float64, maxBrightness, minBrightness int) Adjustment {
	if c.Paused() {
		return Adjustment{}
	}

	ambient, err := c.readSampler()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Paused while the capture was running.
	if c.paused {
		return Adjustment{}
	}

	ambient, err = c.recordSample(ambient, err)
	if err != nil {
		c.log.Error().Err(err).Msg("skipping adjustment")
		return Adjustment{}
	}

	target, err := ComputeTarget(ambient, sensitivity)
	if err != nil {
		c.log.Error().Err(err).Msg("skipping adjustment")
		return Adjustment{}
	}

	target = math.Min(math.Max(target, float64(minBrightness)), float64(maxBrightness))

	if err := c.device.SetBrightness(int(target)); err != nil {
		c.log.Error().Err(err).Int("level", int(target)).Msg("failed to set brightness")
		return Adjustment{}
	}

	return Adjustment{Ambient: ambient, Target: target}
}

// SetManualBrightness applies value directly. Device failures are logged, not
// returned. A rejected value leaves no override recorded, so callers can tell
// from Status whether this call took effect.
func (c *Controller) SetManualBrightness(value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: manual brightness %d", ErrInvalidRange, value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.manual = nil
	if err := c.device.SetBrightness(value); err != nil {
		c.log.Error().Err(err).Int("level", value).Msg("failed to set manual brightness")
		return nil
	}
	c.manual = &value
	return nil
}

// CurrentBrightness is a best-effort device read; 0 when the device fails.
func (c *Controller) CurrentBrightness() int {
	level, err := c.device.Brightness()
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read brightness")
		return 0
	}
	return level
}

func validLimits(max, min int) error {
	if min < 0 || min > max || max > 100 {
		return fmt.Errorf("%w: need 0 <= min <= max <= 100, got min=%d max=%d", ErrInvalidRange, min, max)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
