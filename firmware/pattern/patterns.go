package pattern

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	perlin "github.com/aquilax/go-perlin"

	"github.com/calvinmclean/hackablelamp"
)

// Frame is everything a Pattern may read while rendering one frame. Pixels is the engine's working
// buffer and is modified in place
type Frame struct {
	Pixels []Color
	// Hue is the shared rotating base color
	Hue uint8
	// Elapsed is the time since the engine started. Beat-synced patterns derive their phase from it
	Elapsed time.Duration
	Rand    *rand.Rand
}

// Pattern is one animation. Render is called once per frame and must not block
type Pattern interface {
	Name() string
	Render(f *Frame)
}

func random8(r *rand.Rand) uint8 {
	return uint8(r.Intn(256))
}

func randomRange8(r *rand.Rand, low, high uint8) uint8 {
	if high <= low {
		return low
	}
	return low + uint8(r.Intn(int(high-low)))
}

// SolidColor fills the strip with one color. It is always registry id 0
type SolidColor struct {
	color atomic.Uint32
}

// NewSolidColor creates the pattern with an initial color
func NewSolidColor(c Color) *SolidColor {
	s := &SolidColor{}
	s.Set(c)
	return s
}

func (s *SolidColor) Name() string { return hackablelamp.PatternSolidColor.String() }

// Set changes the fill color. It is safe to call from the transport context
func (s *SolidColor) Set(c Color) {
	s.color.Store(c.pack())
}

// Color returns the current fill color
func (s *SolidColor) Color() Color {
	return unpack(s.color.Load())
}

func (s *SolidColor) Render(f *Frame) {
	Fill(f.Pixels, s.Color())
}

type Rainbow struct{}

func (Rainbow) Name() string { return hackablelamp.PatternRainbow.String() }

func (Rainbow) Render(f *Frame) {
	FillRainbow(f.Pixels, f.Hue, 7)
}

// RainbowGlitter is Rainbow with a chance of one white sparkle per frame
type RainbowGlitter struct {
	Chance uint8
}

func (RainbowGlitter) Name() string { return hackablelamp.PatternRainbowGlitter.String() }

func (p RainbowGlitter) Render(f *Frame) {
	FillRainbow(f.Pixels, f.Hue, 7)
	if random8(f.Rand) < p.Chance {
		pos := f.Rand.Intn(len(f.Pixels))
		f.Pixels[pos] = f.Pixels[pos].Add(White)
	}
}

// Confetti drops randomly colored speckles that fade smoothly
type Confetti struct{}

func (Confetti) Name() string { return hackablelamp.PatternConfetti.String() }

func (Confetti) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 10)
	pos := f.Rand.Intn(len(f.Pixels))
	f.Pixels[pos] = f.Pixels[pos].Add(HSV(f.Hue+random8(f.Rand)%64, 200, 255))
}

// Sinelon sweeps a colored dot back and forth with a fading trail
type Sinelon struct{}

func (Sinelon) Name() string { return hackablelamp.PatternSinelon.String() }

func (Sinelon) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 20)
	pos := Beatsin16(13, 0, len(f.Pixels)-1, f.Elapsed)
	f.Pixels[pos] = f.Pixels[pos].Add(HSV(f.Hue, 255, 192))
}

// BPM pulses palette stripes at a fixed tempo
type BPM struct {
	BeatsPerMinute int
	Palette        Palette
}

func (BPM) Name() string { return hackablelamp.PatternBPM.String() }

func (p BPM) Render(f *Frame) {
	beat := Beatsin8(p.BeatsPerMinute, 64, 255, f.Elapsed)
	for i := range f.Pixels {
		f.Pixels[i] = p.Palette.At(f.Hue+uint8(i*2), beat-f.Hue+uint8(i*10))
	}
}

// Juggle weaves eight colored dots in and out of sync
type Juggle struct{}

func (Juggle) Name() string { return hackablelamp.PatternJuggle.String() }

func (Juggle) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 20)
	var dotHue uint8
	for i := range 8 {
		pos := Beatsin16(i+7, 0, len(f.Pixels)-1, f.Elapsed)
		f.Pixels[pos] = f.Pixels[pos].Or(HSV(dotHue, 200, 255))
		dotHue += 32
	}
}

// Fire flickers orange embers over a fast fade
type Fire struct{}

func (Fire) Name() string { return hackablelamp.PatternFire.String() }

func (Fire) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 40)
	sparks := len(f.Pixels) / 3
	for range sparks {
		pos := f.Rand.Intn(len(f.Pixels))
		heat := randomRange8(f.Rand, 160, 255)
		f.Pixels[pos] = f.Pixels[pos].Add(Color{heat, heat / 4, 0})
	}
}

// Twinkle is a dark strip with occasional white-ish twinkles
type Twinkle struct{}

func (Twinkle) Name() string { return hackablelamp.PatternTwinkle.String() }

func (Twinkle) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 10)
	if random8(f.Rand) < 40 {
		pos := f.Rand.Intn(len(f.Pixels))
		f.Pixels[pos] = HSV(f.Hue+random8(f.Rand)%64, 0, 255)
	}
}

// Cylon scans a single red eye across the strip. It turns around exactly at the first and last pixel
type Cylon struct {
	pos int
	dir int
}

// NewCylon creates the scanner at pixel 0 moving forward
func NewCylon() *Cylon {
	return &Cylon{dir: 1}
}

func (*Cylon) Name() string { return hackablelamp.PatternCylon.String() }

// Position returns the current eye position and direction
func (c *Cylon) Position() (int, int) {
	return c.pos, c.dir
}

var cylonTail = Color{64, 0, 0}

func (c *Cylon) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 20)

	last := len(f.Pixels) - 1
	c.pos += c.dir
	if c.pos <= 0 {
		c.pos = 0
		c.dir = 1
	} else if c.pos >= last {
		c.pos = last
		c.dir = -1
	}

	f.Pixels[c.pos] = Red
	if c.pos > 0 {
		f.Pixels[c.pos-1] = f.Pixels[c.pos-1].Add(cylonTail)
	}
	if c.pos < last {
		f.Pixels[c.pos+1] = f.Pixels[c.pos+1].Add(cylonTail)
	}
}

// Lightning keeps the strip mostly dark with random bright flashes
type Lightning struct{}

func (Lightning) Name() string { return hackablelamp.PatternLightning.String() }

func (Lightning) Render(f *Frame) {
	FadeToBlackBy(f.Pixels, 40)
	if random8(f.Rand) >= 20 {
		return
	}

	n := len(f.Pixels)
	start := f.Rand.Intn(n)
	length := 3
	if n/2 > 3 {
		length += f.Rand.Intn(n/2 - 3)
	}
	for i := 0; i < length && start+i < n; i++ {
		f.Pixels[start+i] = White
	}
}

// ColorWaves runs smooth palette waves along the strip
type ColorWaves struct {
	Palette Palette
}

func (ColorWaves) Name() string { return hackablelamp.PatternColorWaves.String() }

func (p ColorWaves) Render(f *Frame) {
	hue := int(f.Hue)
	for i := range f.Pixels {
		index := Sin8(uint8(i*8 + hue*2))
		bright := Sin8(uint8(i*16 + hue*3))
		f.Pixels[i] = p.Palette.At(index, bright)
	}
}

// Noise colors the strip from a slowly moving 3D Perlin field
type Noise struct {
	field *perlin.Perlin
}

// NewNoise creates the pattern with a fixed noise seed
func NewNoise(seed int64) *Noise {
	return &Noise{field: perlin.NewPerlin(2, 2, 3, seed)}
}

func (*Noise) Name() string { return hackablelamp.PatternNoise.String() }

func (p *Noise) Render(f *Frame) {
	z := float64(int(f.Hue)*4) / 256
	for i := range f.Pixels {
		v := p.field.Noise3D(float64(i*30)/256, 0, z)
		n := uint8(math.Max(0, math.Min(255, (v+1)/2*255)))
		f.Pixels[i] = HSV(n, 255, 255)
	}
}

// DefaultPatterns returns the built-in patterns after SolidColor, in registry order
func DefaultPatterns() []Pattern {
	return []Pattern{
		Rainbow{},
		RainbowGlitter{Chance: 80},
		Confetti{},
		Sinelon{},
		BPM{BeatsPerMinute: 62, Palette: PartyColors},
		Juggle{},
		Fire{},
		Twinkle{},
		NewCylon(),
		Lightning{},
		ColorWaves{Palette: RainbowColors},
		NewNoise(1),
	}
}
