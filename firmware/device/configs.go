package device

import (
	"time"

	"github.com/calvinmclean/hackablelamp/firmware/actuator"
	"github.com/calvinmclean/hackablelamp/firmware/pattern"
)

// Config has the settings for every subsystem the Device runs
type Config struct {
	Pattern  pattern.Config
	Actuator actuator.Config

	// EchoAll echoes every received write to the diagnostic channel
	EchoAll bool
	// StatusInterval is how often a status line is logged. Zero disables it
	StatusInterval time.Duration
	// HeartbeatInterval is how often the heartbeat pin toggles
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the settings used by the lamp: 30 pixels at ~120fps and a servo refreshed
// every 20ms
func DefaultConfig() Config {
	return Config{
		Pattern:           pattern.DefaultConfig(),
		Actuator:          actuator.DefaultConfig(),
		StatusInterval:    0,
		HeartbeatInterval: time.Second,
	}
}
