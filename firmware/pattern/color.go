package pattern

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is one RGB pixel
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{255, 255, 255}
	Red   = Color{255, 0, 0}
)

// Add returns the per-channel sum, saturating at 255
func (c Color) Add(o Color) Color {
	return Color{qadd8(c.R, o.R), qadd8(c.G, o.G), qadd8(c.B, o.B)}
}

// Or returns the per-channel maximum
func (c Color) Or(o Color) Color {
	return Color{max(c.R, o.R), max(c.G, o.G), max(c.B, o.B)}
}

// Scale scales every channel by n/256. Scale(255) is the identity
func (c Color) Scale(n uint8) Color {
	return Color{scale8(c.R, n), scale8(c.G, n), scale8(c.B, n)}
}

func (c Color) pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func unpack(v uint32) Color {
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

func qadd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

func scale8(v, n uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(n))) >> 8)
}

// FadeToBlackBy dims every pixel by amount/256 of its current value
func FadeToBlackBy(pixels []Color, amount uint8) {
	keep := 255 - amount
	for i := range pixels {
		pixels[i] = pixels[i].Scale(keep)
	}
}

// Fill sets every pixel to c
func Fill(pixels []Color, c Color) {
	for i := range pixels {
		pixels[i] = c
	}
}

// HSV converts an 8-bit hue/saturation/value triple, where a hue of 256 is a full turn
func HSV(h, s, v uint8) Color {
	hsv := colorful.Hsv(float64(h)*360/256, float64(s)/255, float64(v)/255)
	return fromColorful(hsv)
}

// FillRainbow paints a rainbow starting at startHue and stepping deltaHue per pixel
func FillRainbow(pixels []Color, startHue uint8, deltaHue uint8) {
	hue := startHue
	for i := range pixels {
		pixels[i] = HSV(hue, 240, 255)
		hue += deltaHue
	}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{r, g, b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Palette is a 16-entry gradient. Lookups blend linearly between neighbouring entries
type Palette [16]Color

// At returns the palette color at index (0-255), scaled by brightness
func (p Palette) At(index, brightness uint8) Color {
	hi := index >> 4
	lo := index & 0x0F

	c := p[hi]
	if lo != 0 {
		next := p[(hi+1)%16]
		c = fromColorful(c.colorful().BlendRgb(next.colorful(), float64(lo)/16))
	}
	return c.Scale(brightness)
}

var (
	// RainbowColors walks the hue wheel
	RainbowColors = Palette{
		{0xFF, 0x00, 0x00}, {0xD5, 0x2A, 0x00}, {0xAB, 0x55, 0x00}, {0xAB, 0x7F, 0x00},
		{0xAB, 0xAB, 0x00}, {0x56, 0xD5, 0x00}, {0x00, 0xFF, 0x00}, {0x00, 0xD5, 0x2A},
		{0x00, 0xAB, 0x55}, {0x00, 0x56, 0xAA}, {0x00, 0x00, 0xFF}, {0x2A, 0x00, 0xD5},
		{0x55, 0x00, 0xAB}, {0x7F, 0x00, 0x81}, {0xAB, 0x00, 0x55}, {0xD5, 0x00, 0x2B},
	}

	// PartyColors skips the greens
	PartyColors = Palette{
		{0x55, 0x00, 0xAB}, {0x84, 0x00, 0x7C}, {0xB5, 0x00, 0x4B}, {0xE5, 0x00, 0x1B},
		{0xE8, 0x17, 0x00}, {0xB8, 0x47, 0x00}, {0xAB, 0x77, 0x00}, {0xAB, 0xAB, 0x00},
		{0xAB, 0x55, 0x00}, {0xDD, 0x22, 0x00}, {0xF2, 0x00, 0x0E}, {0xC2, 0x00, 0x3E},
		{0x8F, 0x00, 0x71}, {0x5F, 0x00, 0xA1}, {0x2F, 0x00, 0xD0}, {0x00, 0x07, 0xF9},
	}
)
