package device

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/hackablelamp"
	"github.com/calvinmclean/hackablelamp/firmware/actuator"
	"github.com/calvinmclean/hackablelamp/firmware/pattern"
	"github.com/calvinmclean/hackablelamp/firmware/timer"
	"github.com/calvinmclean/hackablelamp/firmware/transport"
)

type pixelSink struct {
	frames [][]pattern.Color
	err    error
}

func (s *pixelSink) Show(pixels []pattern.Color) error {
	frame := make([]pattern.Color, len(pixels))
	copy(frame, pixels)
	s.frames = append(s.frames, frame)
	return s.err
}

type servoSink struct {
	angles   []int
	releases int
}

func (s *servoSink) SetAngle(degrees int) error {
	s.angles = append(s.angles, degrees)
	return nil
}

func (s *servoSink) Release() error {
	s.releases++
	return nil
}

type fakeTransport struct {
	polls    int
	notified [][]byte
	err      error
}

func (t *fakeTransport) Poll() error {
	t.polls++
	return nil
}

func (t *fakeTransport) Notify(payload []byte) error {
	t.notified = append(t.notified, payload)
	return t.err
}

type logLine struct {
	level string
	msg   string
}

type recordingLogger struct {
	lines []logLine
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.lines = append(l.lines, logLine{"DEBUG", msg}) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.lines = append(l.lines, logLine{"INFO", msg}) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.lines = append(l.lines, logLine{"WARN", msg}) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.lines = append(l.lines, logLine{"ERROR", msg}) }

func (l *recordingLogger) count(level string) int {
	n := 0
	for _, line := range l.lines {
		if line.level == level {
			n++
		}
	}
	return n
}

type testDevice struct {
	*Device
	clock  *timer.ManualClock
	pixels *pixelSink
	servo  *servoSink
	logger *recordingLogger
}

func newTestDevice(t *testing.T, cfg Config) testDevice {
	t.Helper()
	td := testDevice{
		clock:  timer.NewManualClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		pixels: &pixelSink{},
		servo:  &servoSink{},
		logger: &recordingLogger{},
	}

	var err error
	td.Device, err = New(cfg, td.pixels, td.servo,
		WithClock(td.clock),
		WithRand(rand.New(rand.NewSource(42))),
		WithLogger(td.logger),
	)
	require.NoError(t, err)
	return td
}

func TestNewErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pattern.NumPixels = 0
	_, err := New(cfg, &pixelSink{}, &servoSink{})
	assert.ErrorContains(t, err, pattern.ErrInvalidPixelCount.Error())

	_, err = New(DefaultConfig(), nil, &servoSink{})
	assert.ErrorContains(t, err, pattern.ErrNilSink.Error())

	_, err = New(DefaultConfig(), &pixelSink{}, nil)
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())

	d.Handle(hackablelamp.ChannelShutter, []byte{150})
	assert.Equal(t, 100, d.Actuator().Desired())

	d.Handle(hackablelamp.ChannelColor, []byte{10, 20, 30})
	assert.Equal(t, pattern.Color{R: 10, G: 20, B: 30}, d.Engine().SolidColor())

	d.Handle(hackablelamp.ChannelPattern, []byte{byte(hackablelamp.PatternCylon)})
	assert.Equal(t, uint8(hackablelamp.PatternCylon), d.Engine().Animation())

	d.Handle(hackablelamp.ChannelPattern, []byte{200})
	assert.Equal(t, uint8(hackablelamp.PatternSolidColor), d.Engine().Animation())
}

func TestHandleRejectsShortPayload(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	before := d.Status()

	d.Handle(hackablelamp.ChannelColor, []byte{})
	d.Handle(hackablelamp.ChannelColor, []byte{1, 2})
	d.Handle(hackablelamp.ChannelShutter, nil)

	assert.Equal(t, before, d.Status())
	assert.Equal(t, 3, d.logger.count("WARN"))
}

func TestHandleEchoesToTransports(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	a := &fakeTransport{err: errors.New("not connected")}
	b := &fakeTransport{}
	d.Attach(a)
	d.Attach(b)

	d.Handle(hackablelamp.ChannelUART, []byte("hello"))
	assert.Equal(t, [][]byte{[]byte("hello")}, a.notified)
	assert.Equal(t, [][]byte{[]byte("hello")}, b.notified, "one failing transport does not stop the others")

	d.Handle(hackablelamp.ChannelShutter, []byte{10})
	assert.Len(t, b.notified, 1)
}

func TestEchoAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EchoAll = true
	d := newTestDevice(t, cfg)
	tr := &fakeTransport{}
	d.Attach(tr)

	d.Handle(hackablelamp.ChannelShutter, []byte{10})
	assert.Equal(t, [][]byte{{10}}, tr.notified)
	assert.Equal(t, 10, d.Actuator().Desired())
}

func TestNotifyJoinsErrors(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	errA := errors.New("a")
	d.Attach(&fakeTransport{err: errA})
	d.Attach(&fakeTransport{})

	assert.ErrorIs(t, d.Notify([]byte{1}), errA)
}

func TestTickIsGated(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	tr := &fakeTransport{}
	d.Attach(tr)

	for range 10 {
		d.Tick()
	}
	assert.Equal(t, 10, tr.polls, "transports are polled every tick")
	assert.Empty(t, d.pixels.frames)
	assert.Zero(t, d.servo.releases)
	assert.Equal(t, uint8(0), d.Engine().Hue())

	d.clock.Advance(8 * time.Millisecond)
	d.Tick()
	d.Tick()
	assert.Len(t, d.pixels.frames, 1)
	assert.Zero(t, d.servo.releases)

	d.clock.Advance(12 * time.Millisecond)
	d.Tick()
	assert.Len(t, d.pixels.frames, 2)
	assert.Equal(t, 1, d.servo.releases)
	assert.Equal(t, uint8(1), d.Engine().Hue())
}

func TestTickMovesShutter(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	d.SetPosition(53)

	for range 10 {
		d.clock.Advance(20 * time.Millisecond)
		d.Tick()
	}

	assert.Equal(t, 53, d.Actuator().Current())
	assert.Equal(t, actuator.PhaseIdle, d.Actuator().Phase())
	assert.Equal(t, []int{d.Actuator().Angle(51), d.Actuator().Angle(52), d.Actuator().Angle(53)}, d.servo.angles)
}

func TestTickLogsSinkErrors(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	d.pixels.err = errors.New("spi busy")

	d.clock.Advance(10 * time.Millisecond)
	d.Tick()
	d.clock.Advance(10 * time.Millisecond)
	d.Tick()

	assert.Equal(t, 2, d.logger.count("ERROR"))
}

func TestStatusInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StatusInterval = time.Second
	d := newTestDevice(t, cfg)

	d.clock.Advance(500 * time.Millisecond)
	d.Tick()
	assert.Zero(t, d.logger.count("INFO"))

	d.clock.Advance(500 * time.Millisecond)
	d.Tick()
	assert.Equal(t, 1, d.logger.count("INFO"))
}

type fakePin struct {
	states []bool
}

func (p *fakePin) Set(high bool) {
	p.states = append(p.states, high)
}

func TestHeartbeat(t *testing.T) {
	clock := timer.NewManualClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	pin := &fakePin{}
	d, err := New(DefaultConfig(), &pixelSink{}, &servoSink{}, WithClock(clock), WithHeartbeat(pin))
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, pin.states)

	for range 3 {
		clock.Advance(500 * time.Millisecond)
		d.Tick()
		clock.Advance(500 * time.Millisecond)
		d.Tick()
	}
	assert.Equal(t, []bool{false, true, false, true}, pin.states)
}

func TestSerialEndToEnd(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())

	in := &byteBuffer{}
	var out bytes.Buffer
	d.Attach(transport.NewSerial(in, &out, d.Handle))

	for _, f := range []struct {
		ch      hackablelamp.Channel
		payload []byte
	}{
		{hackablelamp.ChannelColor, []byte{255, 0, 0}},
		{hackablelamp.ChannelPattern, []byte{0}},
		{hackablelamp.ChannelShutter, []byte{48}},
		{hackablelamp.ChannelUART, []byte("ping")},
	} {
		frame, err := hackablelamp.EncodeFrame(f.ch, f.payload)
		require.NoError(t, err)
		in.Write(frame)
	}

	for range 5 {
		d.clock.Advance(20 * time.Millisecond)
		d.Tick()
	}

	status := d.Status()
	assert.Equal(t, hackablelamp.PatternSolidColor, status.Pattern)
	assert.Equal(t, 48, status.Current)

	last := d.pixels.frames[len(d.pixels.frames)-1]
	for _, p := range last {
		assert.Equal(t, pattern.Red, p)
	}

	echo, err := hackablelamp.EncodeFrame(hackablelamp.ChannelDiagnostic, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, echo, out.Bytes())
}

func TestRunStopsOnCancel(t *testing.T) {
	d := newTestDevice(t, DefaultConfig())
	tr := &fakeTransport{}
	d.Attach(tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

type byteBuffer struct {
	bytes.Buffer
}

func (b *byteBuffer) Buffered() int {
	return b.Len()
}
