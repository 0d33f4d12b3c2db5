package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/hackablelamp"
	"github.com/calvinmclean/hackablelamp/firmware/commands"
)

type fakePort struct {
	io.Reader
	written  bytes.Buffer
	writeErr error
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func frame(t *testing.T, ch hackablelamp.Channel, payload ...byte) []byte {
	t.Helper()
	b, err := hackablelamp.EncodeFrame(ch, payload)
	require.NoError(t, err)
	return b
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line            string
		expectedChannel hackablelamp.Channel
		expectedPayload []byte
		expectedErr     string
	}{
		{"s 50", hackablelamp.ChannelShutter, []byte{50}, ""},
		{"  s   150 ", hackablelamp.ChannelShutter, []byte{100}, ""},
		{"s -4", hackablelamp.ChannelShutter, []byte{0}, ""},
		{"s", 0, nil, "usage: s <percent>"},
		{"s abc", 0, nil, "invalid percent"},
		{"c 255 0 10", hackablelamp.ChannelColor, []byte{255, 0, 10}, ""},
		{"c 256 0 0", 0, nil, "invalid color value"},
		{"c 1 2", 0, nil, "usage: c <r> <g> <b>"},
		{"p 3", hackablelamp.ChannelPattern, []byte{3}, ""},
		{"p 200", hackablelamp.ChannelPattern, []byte{200}, ""},
		{"p rainbow w/ glitter", hackablelamp.ChannelPattern, []byte{byte(hackablelamp.PatternRainbowGlitter)}, ""},
		{"p cylon", hackablelamp.ChannelPattern, []byte{byte(hackablelamp.PatternCylon)}, ""},
		{"p disco", 0, nil, "unknown pattern"},
		{"u hello", hackablelamp.ChannelUART, []byte("hello"), ""},
		{"u " + strings.Repeat("x", 21), 0, nil, hackablelamp.ErrPayloadTooLarge.Error()},
		{"x 1", 0, nil, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ch, payload, err := ParseCommand(tt.line)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedChannel, ch)
			assert.Equal(t, tt.expectedPayload, payload)
		})
	}
}

func TestSetters(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("")}
	c := New(port)

	require.NoError(t, c.SetShutter(42))
	require.NoError(t, c.SetShutter(500))
	require.NoError(t, c.SetColor(1, 2, 3))
	require.NoError(t, c.SetPattern(hackablelamp.PatternFire))

	var expected []byte
	expected = append(expected, frame(t, hackablelamp.ChannelShutter, 42)...)
	expected = append(expected, frame(t, hackablelamp.ChannelShutter, 100)...)
	expected = append(expected, frame(t, hackablelamp.ChannelColor, 1, 2, 3)...)
	expected = append(expected, frame(t, hackablelamp.ChannelPattern, byte(hackablelamp.PatternFire))...)
	assert.Equal(t, expected, port.written.Bytes())

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
}

func TestSendWriteError(t *testing.T) {
	port := &fakePort{writeErr: errors.New("unplugged")}
	err := New(port).SetShutter(1)
	assert.ErrorIs(t, err, port.writeErr)
}

func TestNoPort(t *testing.T) {
	c, err := Open(Config{SerialPort: SerialPortNone})
	require.NoError(t, err)
	assert.NoError(t, c.SetShutter(10))
	assert.NoError(t, c.Close())

	_, err = Open(Config{})
	assert.Error(t, err)
}

func TestListen(t *testing.T) {
	var in bytes.Buffer
	in.Write(frame(t, hackablelamp.ChannelDiagnostic, 'h', 'i'))
	in.Write([]byte{0xAA, 0x05, 0x01, 0x00, 0x00})
	in.Write(frame(t, hackablelamp.ChannelShutter, 1))
	in.Write(frame(t, hackablelamp.ChannelDiagnostic, 7))

	c := New(&fakePort{Reader: &in})

	var got [][]byte
	err := c.Listen(context.Background(), func(payload []byte) {
		got = append(got, payload)
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("hi"), {7}}, got)
}

func TestRun(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("")}
	c := New(port)

	in := strings.NewReader("s 30\n\nbad\nc 0 0 255\nh\n")
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx, in, &out))

	var expected []byte
	expected = append(expected, frame(t, hackablelamp.ChannelShutter, 30)...)
	expected = append(expected, frame(t, hackablelamp.ChannelColor, 0, 0, 255)...)
	assert.Equal(t, expected, port.written.Bytes())

	assert.Contains(t, out.String(), `error: unknown command "bad"`)
	assert.Contains(t, out.String(), Usage())
}

func TestUsageDescribesHandlers(t *testing.T) {
	usage := Usage()
	for _, h := range commands.Handlers() {
		syntax, ok := commandSyntax[h.Channel]
		require.True(t, ok, h.Channel.String())
		assert.Contains(t, usage, syntax)
		assert.Contains(t, usage, h.Description)
	}
	assert.Contains(t, usage, "u <text>")
}

func TestConfig(t *testing.T) {
	t.Setenv("LAMP_SERIAL_PORT", "/dev/ttyACM0")
	t.Setenv("LAMP_BAUD_RATE", "")
	cfg := ConfigFromEnv()
	assert.Equal(t, Config{SerialPort: "/dev/ttyACM0", BaudRate: DefaultBaudRate}, cfg)

	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, 115200, mode.BaudRate)

	_, err = Config{BaudRate: "fast"}.Mode()
	assert.Error(t, err)
	_, err = Config{BaudRate: "0"}.Mode()
	assert.Error(t, err)
}
