package pattern

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/hackablelamp/firmware/timer"
)

var (
	ErrInvalidPixelCount = errors.New("pixel count must be positive")
	ErrNilSink           = errors.New("pixel sink is required")
)

// Sink pushes a rendered buffer to the LEDs. Show must not retain pixels after returning
type Sink interface {
	Show(pixels []Color) error
}

// Config has the strip-level settings for the Engine
type Config struct {
	NumPixels int
	// FrameInterval is the minimum time between rendered frames
	FrameInterval time.Duration
	// HueInterval is how often the shared hue advances, independent of the frame rate
	HueInterval time.Duration
	// Brightness scales the output only. 255 is full brightness
	Brightness uint8
	// InitialColor is the starting color of the solid color pattern
	InitialColor Color
}

// DefaultConfig is a 30 pixel strip at ~120 frames per second
func DefaultConfig() Config {
	const framesPerSecond = 120
	return Config{
		NumPixels: 30,
		// round to the nearest millisecond
		FrameInterval: time.Duration((1000+framesPerSecond/2)/framesPerSecond) * time.Millisecond,
		HueInterval:   20 * time.Millisecond,
		Brightness:    255,
		InitialColor:  White,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source for frame and hue timers and beat-synced patterns
func WithClock(c timer.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRand sets the random source used by randomized patterns
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithPatterns replaces the patterns registered after SolidColor
func WithPatterns(patterns ...Pattern) Option {
	return func(e *Engine) {
		e.extra = patterns
	}
}

// Engine owns the pixel buffer and the pattern registry and advances the active pattern once per
// frame. SetSolidColor and SetAnimation may be called from the transport context. Everything else
// belongs to the control loop.
type Engine struct {
	pixels []Color
	out    []Color
	frame  Frame

	solid    *SolidColor
	patterns []Pattern
	extra    []Pattern
	current  atomic.Uint32

	hue        uint8
	brightness uint8

	frameTimer *timer.Timer
	hueTimer   *timer.Timer
	clock      timer.Clock
	start      time.Time
	rand       *rand.Rand

	sink Sink
}

// NewEngine creates an Engine with the SolidColor pattern at id 0 followed by DefaultPatterns (or
// the patterns set by WithPatterns)
func NewEngine(cfg Config, sink Sink, opts ...Option) (*Engine, error) {
	if cfg.NumPixels <= 0 {
		return nil, ErrInvalidPixelCount
	}
	if sink == nil {
		return nil, ErrNilSink
	}

	e := &Engine{
		pixels:     make([]Color, cfg.NumPixels),
		out:        make([]Color, cfg.NumPixels),
		solid:      NewSolidColor(cfg.InitialColor),
		brightness: cfg.Brightness,
		clock:      timer.SystemClock{},
		sink:       sink,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(e.clock.Now().UnixNano()))
	}
	if e.extra == nil {
		e.extra = DefaultPatterns()
	}
	e.patterns = append([]Pattern{e.solid}, e.extra...)

	e.start = e.clock.Now()
	e.frameTimer = timer.New(cfg.FrameInterval, true, timer.WithClock(e.clock))
	e.hueTimer = timer.New(cfg.HueInterval, true, timer.WithClock(e.clock))
	e.frame = Frame{Pixels: e.pixels, Rand: e.rand}

	return e, nil
}

// Render draws and shows one frame if the frame interval has elapsed. It returns whether a frame
// was rendered
func (e *Engine) Render() (bool, error) {
	if !e.frameTimer.Expired() {
		return false, nil
	}
	return true, e.RenderFrame()
}

// RenderFrame runs the selected pattern on the pixel buffer and hands the result to the sink
func (e *Engine) RenderFrame() error {
	p := e.patterns[e.current.Load()]

	e.frame.Hue = e.hue
	e.frame.Elapsed = e.clock.Now().Sub(e.start)
	p.Render(&e.frame)

	for i, c := range e.pixels {
		e.out[i] = c.Scale(e.brightness)
	}
	return e.sink.Show(e.out)
}

// TickHue advances the hue if the hue interval has elapsed
func (e *Engine) TickHue() bool {
	if !e.hueTimer.Expired() {
		return false
	}
	e.AdvanceHue()
	return true
}

// AdvanceHue moves the shared hue forward by one, wrapping at 256
func (e *Engine) AdvanceHue() {
	e.hue++
}

// Hue returns the shared base hue
func (e *Engine) Hue() uint8 {
	return e.hue
}

// SetSolidColor changes the color of the solid color pattern. Other patterns are unaffected
func (e *Engine) SetSolidColor(r, g, b uint8) {
	e.solid.Set(Color{r, g, b})
}

// SolidColor returns the color used by the solid color pattern
func (e *Engine) SolidColor() Color {
	return e.solid.Color()
}

// SetAnimation selects the active pattern. Ids outside the registry fall back to solid color (0)
func (e *Engine) SetAnimation(id uint8) {
	if int(id) >= len(e.patterns) {
		id = 0
	}
	e.current.Store(uint32(id))
}

// NextPattern selects the pattern after the current one, wrapping to the first
func (e *Engine) NextPattern() {
	next := (int(e.current.Load()) + 1) % len(e.patterns)
	e.current.Store(uint32(next))
}

// Animation returns the id of the active pattern
func (e *Engine) Animation() uint8 {
	return uint8(e.current.Load())
}

// Patterns returns the registered pattern names by id
func (e *Engine) Patterns() []string {
	names := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		names[i] = p.Name()
	}
	return names
}

// Pixels returns a copy of the working buffer (before brightness scaling)
func (e *Engine) Pixels() []Color {
	out := make([]Color, len(e.pixels))
	copy(out, e.pixels)
	return out
}
