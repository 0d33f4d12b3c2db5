package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/calvinmclean/hackablelamp"
	"github.com/calvinmclean/hackablelamp/firmware/commands"
)

// Client sends framed commands to a lamp over a serial connection
type Client struct {
	port   io.ReadWriteCloser
	mtx    sync.Mutex
	logger *slog.Logger
}

// New creates a Client using an existing connection. port may be nil to drop all commands
func New(port io.ReadWriteCloser) *Client {
	return &Client{port: port, logger: slog.Default()}
}

// Open opens the configured serial port
func Open(cfg Config) (*Client, error) {
	if cfg.SerialPort == SerialPortNone {
		return New(nil), nil
	}
	if cfg.SerialPort == "" {
		return nil, errors.New("missing serial port")
	}

	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", cfg.SerialPort, err)
	}

	return New(port), nil
}

// NewFromEnv opens the serial port set by LAMP_SERIAL_PORT
func NewFromEnv() (*Client, error) {
	return Open(ConfigFromEnv())
}

// Close closes the serial connection
func (c *Client) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

// Send writes one frame
func (c *Client) Send(ch hackablelamp.Channel, payload []byte) error {
	frame, err := hackablelamp.EncodeFrame(ch, payload)
	if err != nil {
		return err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.port == nil {
		c.logger.Debug("dropping command", "channel", ch.String())
		return nil
	}

	_, err = c.port.Write(frame)
	if err != nil {
		return fmt.Errorf("error writing %s frame: %w", ch, err)
	}
	c.logger.Debug("sent command", "channel", ch.String(), "payload", payload)
	return nil
}

// SetShutter moves the shutter to percent, clamped to [0, 100]
func (c *Client) SetShutter(percent int) error {
	percent = min(max(percent, 0), 100)
	return c.Send(hackablelamp.ChannelShutter, []byte{byte(percent)})
}

// SetColor sets the solid color
func (c *Client) SetColor(r, g, b uint8) error {
	return c.Send(hackablelamp.ChannelColor, []byte{r, g, b})
}

// SetPattern selects a pattern
func (c *Client) SetPattern(id hackablelamp.PatternID) error {
	return c.Send(hackablelamp.ChannelPattern, []byte{byte(id)})
}

// Listen reads frames from the lamp and calls handler with each diagnostic payload until the
// connection fails or ctx is done
func (c *Client) Listen(ctx context.Context, handler func(payload []byte)) error {
	if c.port == nil {
		<-ctx.Done()
		return nil
	}

	r := bufio.NewReader(c.port)
	var decoder hackablelamp.FrameDecoder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading serial: %w", err)
		}

		frame, ok, err := decoder.Feed(b)
		if err != nil {
			c.logger.Warn("dropped corrupt frame", "error", err)
		}
		if ok && frame.Channel == hackablelamp.ChannelDiagnostic {
			handler(frame.Payload)
		}
	}
}

// Run reads commands line by line from in and sends them to the lamp. Diagnostic messages from
// the lamp and command errors are written to out. It returns when in is exhausted or ctx is done
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := &syncWriter{w: out}

	go func() {
		err := c.Listen(ctx, func(payload []byte) {
			fmt.Fprintf(w, "< %q\n", payload)
		})
		if err != nil {
			c.logger.Error("stopped listening", "error", err)
		}
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			c.runLine(line, w)
		}
	}
}

func (c *Client) runLine(line string, out io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if line == "h" || line == "help" {
		fmt.Fprint(out, Usage())
		return
	}

	if line == "l" {
		for i, name := range hackablelamp.PatternNames() {
			fmt.Fprintf(out, "%2d %s\n", i, name)
		}
		return
	}

	ch, payload, err := ParseCommand(line)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}

	err = c.Send(ch, payload)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
}

// commandSyntax is the REPL form of each control channel
var commandSyntax = map[hackablelamp.Channel]string{
	hackablelamp.ChannelShutter: "s <percent>",
	hackablelamp.ChannelColor:   "c <r> <g> <b>",
	hackablelamp.ChannelPattern: "p <id|name>",
}

// Usage describes the commands accepted by Run. Control commands are described by the firmware's
// handler table
func Usage() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, h := range commands.Handlers() {
		fmt.Fprintf(&sb, "  %-13s %s\n", commandSyntax[h.Channel], h.Description)
	}
	sb.WriteString(`  u <text>      Send text on the UART channel. It is echoed back.
  l             List patterns.
  h             Show this help.
`)
	return sb.String()
}

// ParseCommand parses one command line into a channel and payload
func ParseCommand(line string) (hackablelamp.Channel, []byte, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "s":
		if len(args) != 1 {
			return 0, nil, errors.New("usage: s <percent>")
		}
		percent, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, nil, fmt.Errorf("invalid percent %q: %w", args[0], err)
		}
		percent = min(max(percent, 0), 100)
		return hackablelamp.ChannelShutter, []byte{byte(percent)}, nil

	case "c":
		if len(args) != 3 {
			return 0, nil, errors.New("usage: c <r> <g> <b>")
		}
		rgb := make([]byte, 3)
		for i, arg := range args {
			v, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid color value %q: %w", arg, err)
			}
			rgb[i] = byte(v)
		}
		return hackablelamp.ChannelColor, rgb, nil

	case "p":
		if rest == "" {
			return 0, nil, errors.New("usage: p <id|name>")
		}
		id, err := ParsePattern(rest)
		if err != nil {
			return 0, nil, err
		}
		return hackablelamp.ChannelPattern, []byte{byte(id)}, nil

	case "u":
		if rest == "" {
			return 0, nil, errors.New("usage: u <text>")
		}
		if len(rest) > hackablelamp.MaxFramePayload {
			return 0, nil, hackablelamp.ErrPayloadTooLarge
		}
		return hackablelamp.ChannelUART, []byte(rest), nil
	}

	return 0, nil, fmt.Errorf("unknown command %q", cmd)
}

// ParsePattern accepts a pattern id or a case-insensitive pattern name
func ParsePattern(s string) (hackablelamp.PatternID, error) {
	id, err := strconv.ParseUint(s, 10, 8)
	if err == nil {
		return hackablelamp.PatternID(id), nil
	}

	for i, name := range hackablelamp.PatternNames() {
		if strings.EqualFold(name, s) {
			return hackablelamp.PatternID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

type syncWriter struct {
	mtx sync.Mutex
	w   io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.w.Write(p)
}
