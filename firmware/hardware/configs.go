//go:build tinygo

package hardware

import (
	"machine"

	"tinygo.org/x/drivers/servo"
)

// StripConfig has the data pin for the WS2812 strip
type StripConfig struct {
	Pin machine.Pin
}

// ServoConfig has device-level values for setting up the shutter servo
type ServoConfig struct {
	Pin machine.Pin
	PWM servo.PWM
}
