package actuator

import (
	"sync/atomic"
	"time"

	"github.com/calvinmclean/hackablelamp/firmware/timer"
)

const (
	ClosedPosition = 0
	OpenPosition   = 100
)

// Phase is the state of the Controller's state machine
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMoving
)

func (p Phase) String() string {
	switch p {
	case PhaseMoving:
		return "Moving"
	default:
		fallthrough
	case PhaseIdle:
		return "Idle"
	}
}

// Sink drives the physical servo. Release must be safe to call repeatedly
type Sink interface {
	SetAngle(degrees int) error
	Release() error
}

// Config has the refresh rate and calibration of the servo
type Config struct {
	// RefreshPeriod is the time between controller steps. Each step moves at most one percent
	RefreshPeriod time.Duration
	// MinAngle and MaxAngle are the servo angles for ClosedPosition and OpenPosition
	MinAngle int
	MaxAngle int
	// InitialPosition is where the controller assumes the shutter is at power on
	InitialPosition int
}

// DefaultConfig maps 0-100% onto a full 180° servo, refreshed every 20ms
func DefaultConfig() Config {
	return Config{
		RefreshPeriod:   20 * time.Millisecond,
		MinAngle:        0,
		MaxAngle:        180,
		InitialPosition: OpenPosition / 2,
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the time source of the refresh timer
func WithClock(c timer.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// Controller moves the servo toward the most recently requested position one percent per step and
// releases it once it gets there. Only the latest SetPosition matters; there is no queue of targets.
type Controller struct {
	cfg  Config
	sink Sink

	// desired is written by SetPosition, possibly from the transport context
	desired atomic.Int32
	current int
	phase   Phase

	refresh *timer.Timer
	clock   timer.Clock
}

// New creates a Controller in Idle at cfg.InitialPosition. It does not move the servo
func New(cfg Config, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		cfg:   cfg,
		sink:  sink,
		clock: timer.SystemClock{},
		phase: PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}

	initial := clamp(cfg.InitialPosition)
	c.current = initial
	c.desired.Store(int32(initial))
	c.refresh = timer.New(cfg.RefreshPeriod, true, timer.WithClock(c.clock))

	return c
}

func clamp(p int) int {
	return min(max(p, ClosedPosition), OpenPosition)
}

// SetPosition sets the target position in percent, clamped to [0, 100]. Motion happens on later steps
func (c *Controller) SetPosition(p int) {
	c.desired.Store(int32(clamp(p)))
}

// Desired returns the target position in percent
func (c *Controller) Desired() int {
	return int(c.desired.Load())
}

// Current returns the last position sent to the servo, in percent
func (c *Controller) Current() int {
	return c.current
}

// Phase returns the current state machine phase
func (c *Controller) Phase() Phase {
	return c.phase
}

// Angle maps a percent position onto the servo's angle range
func (c *Controller) Angle(percent int) int {
	return (percent-ClosedPosition)*(c.cfg.MaxAngle-c.cfg.MinAngle)/(OpenPosition-ClosedPosition) + c.cfg.MinAngle
}

// Step runs Update if the refresh period has elapsed. It returns whether a step ran
func (c *Controller) Step() (bool, error) {
	if !c.refresh.Expired() {
		return false, nil
	}
	return true, c.Update()
}

// Update performs exactly one state machine action:
//   - Idle: start Moving if the target changed, otherwise release the servo
//   - Moving: move one percent toward the target and go back to Idle once it is reached
//
// The logical position advances even if the sink returns an error
func (c *Controller) Update() error {
	desired := c.Desired()

	switch c.phase {
	case PhaseIdle:
		if desired != c.current {
			c.phase = PhaseMoving
			return nil
		}
		return c.sink.Release()

	case PhaseMoving:
		if desired > c.current {
			c.current++
		} else if desired < c.current {
			c.current--
		}

		err := c.sink.SetAngle(c.Angle(c.current))

		if c.current == desired {
			c.phase = PhaseIdle
		}
		return err
	}

	return nil
}
