package pattern

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/hackablelamp"
	"github.com/calvinmclean/hackablelamp/firmware/timer"
)

type recordingSink struct {
	frames [][]Color
	err    error
}

func (s *recordingSink) Show(pixels []Color) error {
	frame := make([]Color, len(pixels))
	copy(frame, pixels)
	s.frames = append(s.frames, frame)
	return s.err
}

func (s *recordingSink) last() []Color {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *recordingSink, *timer.ManualClock) {
	t.Helper()
	clock := timer.NewManualClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	sink := &recordingSink{}
	e, err := NewEngine(cfg, sink, WithClock(clock), WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, err)
	return e, sink, clock
}

func TestNewEngineValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumPixels = 0
	_, err := NewEngine(cfg, &recordingSink{})
	assert.ErrorIs(t, err, ErrInvalidPixelCount)

	_, err = NewEngine(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilSink)
}

func TestRegistryOrderMatchesPatternIDs(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())
	assert.Equal(t, hackablelamp.PatternNames(), e.Patterns())
}

func TestSolidColorRoundTrip(t *testing.T) {
	colors := []Color{Black, White, {1, 2, 3}, {255, 0, 128}}
	for _, c := range colors {
		e, sink, _ := newTestEngine(t, DefaultConfig())
		e.SetAnimation(uint8(hackablelamp.PatternRainbow))
		e.SetSolidColor(c.R, c.G, c.B)
		e.SetAnimation(0)

		require.NoError(t, e.RenderFrame())
		for i, px := range e.Pixels() {
			assert.Equal(t, c, px, "pixel %d", i)
		}
		assert.Equal(t, e.Pixels(), sink.last())
		assert.Equal(t, c, e.SolidColor())
	}
}

func TestSetSolidColorDoesNotAffectOtherPatterns(t *testing.T) {
	a, _, _ := newTestEngine(t, DefaultConfig())
	b, _, _ := newTestEngine(t, DefaultConfig())
	a.SetAnimation(uint8(hackablelamp.PatternRainbow))
	b.SetAnimation(uint8(hackablelamp.PatternRainbow))
	b.SetSolidColor(9, 9, 9)

	require.NoError(t, a.RenderFrame())
	require.NoError(t, b.RenderFrame())
	assert.Equal(t, a.Pixels(), b.Pixels())
}

func TestSetAnimationClamps(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())
	count := len(e.Patterns())

	for k := range 256 {
		e.SetAnimation(uint8(k))
		if k < count {
			assert.Equal(t, uint8(k), e.Animation())
		} else {
			assert.Equal(t, uint8(0), e.Animation(), "id %d", k)
		}
	}
}

func TestNextPatternWraps(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())
	e.SetAnimation(uint8(hackablelamp.NumPatterns - 1))
	e.NextPattern()
	assert.Equal(t, uint8(0), e.Animation())
	e.NextPattern()
	assert.Equal(t, uint8(1), e.Animation())
}

func TestRenderIsGatedByFrameInterval(t *testing.T) {
	e, sink, clock := newTestEngine(t, DefaultConfig())

	rendered, err := e.Render()
	require.NoError(t, err)
	assert.False(t, rendered)

	clock.Advance(7 * time.Millisecond)
	rendered, _ = e.Render()
	assert.False(t, rendered)

	clock.Advance(time.Millisecond)
	rendered, _ = e.Render()
	assert.True(t, rendered)
	rendered, _ = e.Render()
	assert.False(t, rendered)

	assert.Len(t, sink.frames, 1)
}

func TestRenderReturnsSinkError(t *testing.T) {
	e, sink, _ := newTestEngine(t, DefaultConfig())
	sink.err = errors.New("bus busy")
	assert.ErrorIs(t, e.RenderFrame(), sink.err)
}

func TestHueTicksIndependentlyAndWraps(t *testing.T) {
	e, _, clock := newTestEngine(t, DefaultConfig())

	assert.False(t, e.TickHue())
	for i := 1; i <= 300; i++ {
		clock.Advance(20 * time.Millisecond)
		assert.True(t, e.TickHue())
		assert.Equal(t, uint8(i%256), e.Hue())
	}
}

func TestBrightnessScalesOutputOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Brightness = 127
	e, sink, _ := newTestEngine(t, cfg)
	e.SetSolidColor(200, 100, 0)

	require.NoError(t, e.RenderFrame())
	assert.Equal(t, Color{200, 100, 0}, e.Pixels()[0])
	assert.Equal(t, Color{100, 50, 0}, sink.last()[0])
}
