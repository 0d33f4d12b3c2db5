package simulator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kellydunn/go-opc"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/calvinmclean/hackablelamp/firmware/pattern"
	"github.com/calvinmclean/hackablelamp/firmware/timer"
)

func parseHex(s string) (pattern.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return pattern.Color{}, err
	}
	r, g, b := c.RGB255()
	return pattern.Color{R: r, G: g, B: b}, nil
}

// MultiSink shows every frame on all of its sinks
type MultiSink []pattern.Sink

func (m MultiSink) Show(pixels []pattern.Color) error {
	var errs []error
	for _, s := range m {
		err := s.Show(pixels)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const opcRetryInterval = 2 * time.Second

// opcClient is the part of *opc.Client used by OPCSink
type opcClient interface {
	Connect(network, address string) error
	Send(m *opc.Message) error
}

// OPCSink sends frames to an Open Pixel Control server, like a fadecandy or the gl_server
// simulator. A lost connection is redialed, at most once per retry interval
type OPCSink struct {
	addr      string
	channel   uint8
	client    opcClient
	newClient func() opcClient
	msg       *opc.Message
	msgPixels int
	retry     *timer.Timer
}

// NewOPCSink creates an OPCSink. The connection is made on the first Show
func NewOPCSink(cfg OPCConfig) *OPCSink {
	return &OPCSink{
		addr:    cfg.Address,
		channel: cfg.Channel,
		retry:   timer.New(opcRetryInterval, false),
		newClient: func() opcClient {
			return opc.NewClient()
		},
	}
}

// Message builds the OPC set pixel colors message for pixels. The message is reused while the
// pixel count does not change
func (s *OPCSink) Message(pixels []pattern.Color) *opc.Message {
	if s.msg == nil || s.msgPixels != len(pixels) {
		s.msg = opc.NewMessage(s.channel)
		s.msg.SetLength(uint16(len(pixels) * 3))
		s.msgPixels = len(pixels)
	}
	for i, p := range pixels {
		s.msg.SetPixelColor(i, p.R, p.G, p.B)
	}
	return s.msg
}

func (s *OPCSink) Show(pixels []pattern.Color) error {
	if s.client == nil {
		if s.retry.IsRunning() && !s.retry.Expired() {
			return nil
		}

		client := s.newClient()
		err := client.Connect("tcp", s.addr)
		if err != nil {
			s.retry.Start()
			return fmt.Errorf("error connecting to OPC server %q: %w", s.addr, err)
		}
		s.retry.Stop()
		s.client = client
	}

	err := s.client.Send(s.Message(pixels))
	if err != nil {
		s.drop()
		s.retry.Start()
		return fmt.Errorf("error sending OPC frame: %w", err)
	}
	return nil
}

// Close closes the connection
func (s *OPCSink) Close() error {
	return s.drop()
}

func (s *OPCSink) drop() error {
	client := s.client
	s.client = nil
	if c, ok := client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// TerminalSink draws the strip on one terminal line using 24-bit ANSI colors. Frames are dropped
// to keep the terminal refresh rate reasonable
type TerminalSink struct {
	w       io.Writer
	refresh *timer.Timer
	sb      strings.Builder
}

const terminalRefresh = 33 * time.Millisecond

// NewTerminalSink creates a TerminalSink writing to w
func NewTerminalSink(w io.Writer, opts ...timer.Option) *TerminalSink {
	return &TerminalSink{
		w:       w,
		refresh: timer.New(terminalRefresh, true, opts...),
	}
}

// Line renders pixels as a line of colored blocks
func (t *TerminalSink) Line(pixels []pattern.Color) string {
	t.sb.Reset()
	t.sb.WriteString("\r")
	for _, p := range pixels {
		fmt.Fprintf(&t.sb, "\x1b[48;2;%d;%d;%dm  ", p.R, p.G, p.B)
	}
	t.sb.WriteString("\x1b[0m")
	return t.sb.String()
}

func (t *TerminalSink) Show(pixels []pattern.Color) error {
	if !t.refresh.Expired() {
		return nil
	}
	_, err := io.WriteString(t.w, t.Line(pixels))
	return err
}

// LogServo logs servo movement instead of driving hardware
type LogServo struct {
	logger   *slog.Logger
	angle    int
	released bool
}

// NewLogServo creates a LogServo
func NewLogServo(logger *slog.Logger) *LogServo {
	return &LogServo{logger: logger, released: true}
}

func (s *LogServo) SetAngle(degrees int) error {
	if s.released {
		s.logger.Info("servo moving")
	}
	s.angle = degrees
	s.released = false
	s.logger.Debug("servo angle", "degrees", degrees)
	return nil
}

func (s *LogServo) Release() error {
	if !s.released {
		s.logger.Info("servo released", "degrees", s.angle)
	}
	s.released = true
	return nil
}

// Angle returns the last angle set
func (s *LogServo) Angle() int {
	return s.angle
}

// Released reports whether the servo is holding no torque
func (s *LogServo) Released() bool {
	return s.released
}
