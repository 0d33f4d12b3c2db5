package device

import (
	"context"
	"errors"
	"math/rand"
	"runtime"

	"github.com/calvinmclean/hackablelamp"
	"github.com/calvinmclean/hackablelamp/firmware/actuator"
	"github.com/calvinmclean/hackablelamp/firmware/commands"
	"github.com/calvinmclean/hackablelamp/firmware/pattern"
	"github.com/calvinmclean/hackablelamp/firmware/timer"
	"github.com/calvinmclean/hackablelamp/firmware/transport"
)

// Device is the lamp. It owns the pattern engine, the shutter actuator and the command router, and
// runs them in a single cooperative loop. Each subsystem is gated by its own timer so Tick can be
// called as often as possible.
type Device struct {
	engine     *pattern.Engine
	actuator   *actuator.Controller
	router     *commands.Router
	transports []transport.Transport

	logger      Logger
	clock       timer.Clock
	rand        *rand.Rand
	statusTimer *timer.Timer

	heartbeat      Pin
	heartbeatOn    bool
	heartbeatTimer *timer.Timer
}

// Pin is a digital output, like machine.Pin
type Pin interface {
	Set(high bool)
}

// Option configures a Device
type Option func(*Device)

// WithLogger sets the Logger. By default nothing is logged
func WithLogger(l Logger) Option {
	return func(d *Device) {
		d.logger = l
	}
}

// WithClock sets the time source for every subsystem timer
func WithClock(c timer.Clock) Option {
	return func(d *Device) {
		d.clock = c
	}
}

// WithRand sets the random source used by the patterns
func WithRand(r *rand.Rand) Option {
	return func(d *Device) {
		d.rand = r
	}
}

// WithHeartbeat toggles pin every Config.HeartbeatInterval to show the loop is alive
func WithHeartbeat(pin Pin) Option {
	return func(d *Device) {
		d.heartbeat = pin
	}
}

// New creates a Device that renders to pixels and moves servo
func New(cfg Config, pixels pattern.Sink, servo actuator.Sink, opts ...Option) (*Device, error) {
	d := &Device{
		logger: nopLogger{},
		clock:  timer.SystemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}

	if servo == nil {
		return nil, errors.New("servo sink is required")
	}

	engineOpts := []pattern.Option{pattern.WithClock(d.clock)}
	if d.rand != nil {
		engineOpts = append(engineOpts, pattern.WithRand(d.rand))
	}

	var err error
	d.engine, err = pattern.NewEngine(cfg.Pattern, pixels, engineOpts...)
	if err != nil {
		return nil, errors.New("error creating pattern engine: " + err.Error())
	}

	d.actuator = actuator.New(cfg.Actuator, servo, actuator.WithClock(d.clock))

	routerOpts := []commands.RouterOption{commands.WithNotifier(d)}
	if cfg.EchoAll {
		routerOpts = append(routerOpts, commands.WithEchoAll())
	}
	d.router = commands.NewRouter(d, routerOpts...)

	d.statusTimer = timer.New(cfg.StatusInterval, cfg.StatusInterval > 0, timer.WithClock(d.clock))
	d.heartbeatTimer = timer.New(cfg.HeartbeatInterval, d.heartbeat != nil && cfg.HeartbeatInterval > 0, timer.WithClock(d.clock))
	if d.heartbeat != nil {
		d.heartbeat.Set(false)
	}

	return d, nil
}

// Attach adds a transport. Transports are polled in the order they were attached. Create them with
// Handle as their handler
func (d *Device) Attach(t transport.Transport) {
	d.transports = append(d.transports, t)
}

// Handle routes one write from a transport. Rejected commands are logged and otherwise ignored
func (d *Device) Handle(ch hackablelamp.Channel, payload []byte) {
	d.logger.Debug("received command", "channel", ch, "payload", payload)

	err := d.router.OnCommand(ch, payload)
	if err != nil {
		d.logger.Warn("rejected command", "error", err)
	}
}

// Notify sends payload to every attached transport. Delivery is best-effort
func (d *Device) Notify(payload []byte) error {
	var errs []error
	for _, t := range d.transports {
		err := t.Notify(payload)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tick runs one loop iteration: service the transports, step the actuator, then render a frame
// and advance the hue. Nothing here blocks and no error stops the loop
func (d *Device) Tick() {
	for _, t := range d.transports {
		err := t.Poll()
		if err != nil {
			d.logger.Warn("transport error", "error", err)
		}
	}

	_, err := d.actuator.Step()
	if err != nil {
		d.logger.Error("error moving servo", "error", err)
	}

	_, err = d.engine.Render()
	if err != nil {
		d.logger.Error("error showing pixels", "error", err)
	}
	d.engine.TickHue()

	if d.heartbeatTimer.Expired() {
		d.heartbeatOn = !d.heartbeatOn
		d.heartbeat.Set(d.heartbeatOn)
	}

	if d.statusTimer.Expired() {
		d.logger.Info("status", d.Status().LogArgs()...)
	}
}

// Run calls Tick until ctx is done, yielding to other goroutines between iterations
func (d *Device) Run(ctx context.Context) {
	d.logger.Info("starting control loop", "patterns", len(d.engine.Patterns()))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping control loop")
			return
		default:
		}

		d.Tick()
		runtime.Gosched()
	}
}

// SetPosition sets the shutter target in percent
func (d *Device) SetPosition(percent int) {
	d.actuator.SetPosition(percent)
}

// SetSolidColor sets the solid pattern's color
func (d *Device) SetSolidColor(r, g, b uint8) {
	d.engine.SetSolidColor(r, g, b)
}

// SetAnimation selects a pattern by id
func (d *Device) SetAnimation(id uint8) {
	d.engine.SetAnimation(id)
}

// Engine returns the pattern engine
func (d *Device) Engine() *pattern.Engine {
	return d.engine
}

// Actuator returns the shutter controller
func (d *Device) Actuator() *actuator.Controller {
	return d.actuator
}

// Status is a snapshot of the lamp's state
type Status struct {
	Pattern    hackablelamp.PatternID
	Hue        uint8
	SolidColor pattern.Color
	Desired    int
	Current    int
	Phase      actuator.Phase
}

// Status returns the current state of the lamp
func (d *Device) Status() Status {
	return Status{
		Pattern:    hackablelamp.PatternID(d.engine.Animation()),
		Hue:        d.engine.Hue(),
		SolidColor: d.engine.SolidColor(),
		Desired:    d.actuator.Desired(),
		Current:    d.actuator.Current(),
		Phase:      d.actuator.Phase(),
	}
}

// LogArgs returns the status as key/value pairs for a Logger
func (s Status) LogArgs() []any {
	return []any{
		"pattern", s.Pattern.String(),
		"hue", s.Hue,
		"color", []byte{s.SolidColor.R, s.SolidColor.G, s.SolidColor.B},
		"desired", s.Desired,
		"current", s.Current,
		"phase", s.Phase.String(),
	}
}
