//go:build tinygo

package hardware

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"github.com/calvinmclean/hackablelamp/firmware/pattern"
)

// Strip shows pixels on a WS2812 strip
type Strip struct {
	dev ws2812.Device
	buf []color.RGBA
}

// NewStrip configures the data pin and allocates the buffer for numPixels
func NewStrip(cfg StripConfig, numPixels int) *Strip {
	cfg.Pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Strip{
		dev: ws2812.New(cfg.Pin),
		buf: make([]color.RGBA, numPixels),
	}
}

// Show writes pixels to the strip. Extra pixels are ignored
func (s *Strip) Show(pixels []pattern.Color) error {
	n := min(len(pixels), len(s.buf))
	for i := range n {
		s.buf[i] = color.RGBA{R: pixels[i].R, G: pixels[i].G, B: pixels[i].B, A: 255}
	}
	return s.dev.WriteColors(s.buf[:n])
}
