package commands

import (
	"errors"

	"github.com/calvinmclean/hackablelamp"
)

var (
	ErrPayloadTooShort = errors.New("payload too short")
	ErrUnknownChannel  = errors.New("unknown channel")
)

// DecodeError reports which channel a payload failed to decode on
type DecodeError struct {
	Channel hackablelamp.Channel
	Err     error
}

func (e *DecodeError) Error() string {
	return e.Channel.String() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Target receives decoded commands. It is satisfied by a device wrapping the pattern engine and
// the actuator controller
type Target interface {
	SetPosition(percent int)
	SetSolidColor(r, g, b uint8)
	SetAnimation(id uint8)
}

// Command is one decoded control command
type Command interface {
	Apply(Target)
}

// SetActuatorPercent moves the shutter. Percent is already clamped to [0, 100]
type SetActuatorPercent struct {
	Percent uint8
}

func (c SetActuatorPercent) Apply(t Target) {
	t.SetPosition(int(c.Percent))
}

// SetSolidColor changes the solid color pattern's color
type SetSolidColor struct {
	R, G, B uint8
}

func (c SetSolidColor) Apply(t Target) {
	t.SetSolidColor(c.R, c.G, c.B)
}

// SelectPattern picks the active pattern. Out of range ids are handled by the pattern engine
type SelectPattern struct {
	ID uint8
}

func (c SelectPattern) Apply(t Target) {
	t.SetAnimation(c.ID)
}

// Handler decodes payloads for one control channel
type Handler struct {
	Channel     hackablelamp.Channel
	InputSize   int
	Decode      func([]byte) Command
	Description string
}

var (
	ShutterHandler = &Handler{
		Channel:   hackablelamp.ChannelShutter,
		InputSize: 1,
		Decode: func(b []byte) Command {
			percent := b[0]
			if percent > 100 {
				percent = 100
			}
			return SetActuatorPercent{Percent: percent}
		},
		Description: "Set the shutter position. Input: percent 0-100, larger values are clamped.",
	}
	PatternHandler = &Handler{
		Channel:   hackablelamp.ChannelPattern,
		InputSize: 1,
		Decode: func(b []byte) Command {
			return SelectPattern{ID: b[0]}
		},
		Description: "Select the LED pattern. Input: pattern id, unknown ids fall back to solid color.",
	}
	ColorHandler = &Handler{
		Channel:   hackablelamp.ChannelColor,
		InputSize: 3,
		Decode: func(b []byte) Command {
			return SetSolidColor{R: b[0], G: b[1], B: b[2]}
		},
		Description: "Set the solid color. Input: R, G, B.",
	}
)

var handlers = map[hackablelamp.Channel]*Handler{
	ShutterHandler.Channel: ShutterHandler,
	PatternHandler.Channel: PatternHandler,
	ColorHandler.Channel:   ColorHandler,
}

// Handlers returns the control channel handlers ordered by channel id
func Handlers() []*Handler {
	return []*Handler{ShutterHandler, ColorHandler, PatternHandler}
}

// Decode turns a payload into a Command. Payloads shorter than the channel's InputSize fail with
// ErrPayloadTooShort. Extra trailing bytes are ignored
func Decode(ch hackablelamp.Channel, payload []byte) (Command, error) {
	h, ok := handlers[ch]
	if !ok {
		return nil, ErrUnknownChannel
	}
	if len(payload) < h.InputSize {
		return nil, &DecodeError{Channel: ch, Err: ErrPayloadTooShort}
	}
	return h.Decode(payload), nil
}
