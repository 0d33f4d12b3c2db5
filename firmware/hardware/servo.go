//go:build tinygo

package hardware

import (
	"errors"

	"tinygo.org/x/drivers/servo"
)

// Servo drives the shutter servo over PWM
type Servo struct {
	servo servo.Servo
}

// NewServo configures the PWM peripheral for the servo. The servo is left released
func NewServo(cfg ServoConfig) (*Servo, error) {
	s, err := servo.New(cfg.PWM, cfg.Pin)
	if err != nil {
		return nil, errors.New("error creating servo: " + err.Error())
	}
	return &Servo{servo: s}, nil
}

// SetAngle moves the servo to degrees
func (s *Servo) SetAngle(degrees int) error {
	return s.servo.SetAngle(degrees)
}

// Release stops the control pulse so the servo holds no torque
func (s *Servo) Release() error {
	s.servo.SetMicroseconds(0)
	return nil
}
