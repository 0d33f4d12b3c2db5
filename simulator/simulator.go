package simulator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"
	"tinygo.org/x/bluetooth"

	"github.com/calvinmclean/hackablelamp/firmware/device"
	"github.com/calvinmclean/hackablelamp/firmware/pattern"
	"github.com/calvinmclean/hackablelamp/firmware/timer"
	"github.com/calvinmclean/hackablelamp/firmware/transport"
)

// Simulator runs the lamp's control loop on a host. Pixels go to the terminal and/or an OPC server
// and the servo is only logged
type Simulator struct {
	cfg    Config
	logger *slog.Logger
	device *device.Device
	servo  *LogServo
	opc    *OPCSink
}

// Option configures a Simulator
type Option func(*options)

type options struct {
	terminal io.Writer
	clock    timer.Clock
	sinks    []pattern.Sink
}

// WithTerminal sets where the terminal sink draws. The default is to not draw
func WithTerminal(w io.Writer) Option {
	return func(o *options) {
		o.terminal = w
	}
}

// WithClock sets the device's time source
func WithClock(c timer.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSink adds another pixel sink
func WithSink(s pattern.Sink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, s)
	}
}

// New creates the simulated device
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Simulator, error) {
	o := &options{clock: timer.SystemClock{}}
	for _, opt := range opts {
		opt(o)
	}

	devCfg, err := cfg.DeviceConfig()
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:    cfg,
		logger: logger,
		servo:  NewLogServo(logger.With("component", "servo")),
	}

	sinks := MultiSink(o.sinks)
	if cfg.Terminal && o.terminal != nil {
		sinks = append(sinks, NewTerminalSink(o.terminal, timer.WithClock(o.clock)))
	}
	if cfg.OPC.Address != "" {
		s.opc = NewOPCSink(cfg.OPC)
		sinks = append(sinks, s.opc)
	}

	s.device, err = device.New(devCfg, sinks, s.servo,
		device.WithLogger(logger.With("component", "device")),
		device.WithClock(o.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating device: %w", err)
	}

	return s, nil
}

// Device returns the simulated device
func (s *Simulator) Device() *device.Device {
	return s.device
}

// Servo returns the logging servo
func (s *Simulator) Servo() *LogServo {
	return s.servo
}

// Run reads framed commands from in (or the configured serial port) and writes diagnostic
// frames to out. It returns when ctx is done
func (s *Simulator) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.cfg.SerialPort != "" {
		port, err := serial.Open(s.cfg.SerialPort, &serial.Mode{BaudRate: s.cfg.BaudRate})
		if err != nil {
			return fmt.Errorf("error opening serial port %q: %w", s.cfg.SerialPort, err)
		}
		defer port.Close()
		in, out = port, port
	}

	stream := transport.NewStream(in, out, s.device.Handle)
	s.device.Attach(stream)
	stream.Start(ctx)

	if s.cfg.BLE {
		ble, err := transport.NewBLE(bluetooth.DefaultAdapter, transport.DefaultBLEConfig(), s.device.Handle)
		if err != nil {
			return fmt.Errorf("error starting BLE: %w", err)
		}
		s.device.Attach(ble)
		s.logger.Info("advertising over BLE")
	}

	go func() {
		select {
		case <-stream.Done():
			s.logger.Info("input closed", "error", stream.Err())
		case <-ctx.Done():
		}
	}()

	// the lamp keeps running after the input closes, like it does when a remote disconnects
	s.device.Run(ctx)

	if s.opc != nil {
		err := s.opc.Close()
		if err != nil {
			s.logger.Warn("error closing OPC connection", "error", err)
		}
	}

	return nil
}
