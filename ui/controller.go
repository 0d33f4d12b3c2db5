package ui

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/calvinmclean/hackablelamp"
)

// commandWriter turns UI events into lines for controller.Client.Run
type commandWriter struct {
	writer    io.Writer
	lastEvent *sinceTimer
}

func (c *commandWriter) touch() {
	if c.lastEvent != nil {
		c.lastEvent.Set(time.Now())
	}
}

func (c *commandWriter) SetShutter(value float64) {
	c.touch()
	fmt.Fprintf(c.writer, "s %.0f\n", value)
}

func (c *commandWriter) SetPattern(id hackablelamp.PatternID) {
	c.touch()
	fmt.Fprintf(c.writer, "p %d\n", id)
}

func (c *commandWriter) SetColor(col color.Color) {
	c.touch()
	cf, ok := colorful.MakeColor(col)
	if !ok {
		// fully transparent, treat as off
		cf = colorful.Color{}
	}
	r, g, b := cf.RGB255()
	fmt.Fprintf(c.writer, "c %d %d %d\n", r, g, b)
}
