package commands

import (
	"errors"

	"github.com/calvinmclean/hackablelamp"
)

// Notifier sends diagnostic bytes back to the remote. Delivery is best-effort
type Notifier interface {
	Notify(payload []byte) error
}

// Router decodes payloads from the transport and applies them to the Target. It never panics or
// halts on bad input: short payloads are rejected, out of range values are clamped and unknown
// channels are ignored.
type Router struct {
	target   Target
	notifier Notifier
	echoAll  bool
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithNotifier attaches the diagnostic channel used to echo non-control writes
func WithNotifier(n Notifier) RouterOption {
	return func(r *Router) {
		r.notifier = n
	}
}

// WithEchoAll echoes every write to the notifier, including control channel writes. This is
// useful when debugging a remote from a BLE terminal
func WithEchoAll() RouterOption {
	return func(r *Router) {
		r.echoAll = true
	}
}

// NewRouter creates a Router that applies commands to t
func NewRouter(t Target, opts ...RouterOption) *Router {
	r := &Router{target: t}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnCommand handles one write. A *DecodeError wrapping ErrPayloadTooShort is returned when a control
// payload is too short; nothing is changed in that case. Writes to other channels are only echoed
func (r *Router) OnCommand(ch hackablelamp.Channel, payload []byte) error {
	if r.echoAll {
		r.echo(payload)
	}

	cmd, err := Decode(ch, payload)
	if errors.Is(err, ErrUnknownChannel) {
		if !r.echoAll {
			r.echo(payload)
		}
		return nil
	}
	if err != nil {
		return err
	}

	cmd.Apply(r.target)
	return nil
}

func (r *Router) echo(payload []byte) {
	if r.notifier == nil || len(payload) == 0 {
		return
	}
	// observability only, errors are not reported
	_ = r.notifier.Notify(payload)
}
