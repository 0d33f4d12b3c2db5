//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/calvinmclean/hackablelamp/firmware/device"
	"github.com/calvinmclean/hackablelamp/firmware/hardware"
	"github.com/calvinmclean/hackablelamp/firmware/transport"
)

// Wiring for an Adafruit Feather nRF52840: strip data on D5, shutter servo on D6
func main() {
	// give the USB console a moment to come up so startup errors are visible
	time.Sleep(2 * time.Second)

	logger := device.PrintLogger{}

	cfg := device.DefaultConfig()
	cfg.Pattern.NumPixels = 30
	cfg.Actuator.MinAngle = 10
	cfg.Actuator.MaxAngle = 170
	cfg.StatusInterval = 10 * time.Second

	strip := hardware.NewStrip(hardware.StripConfig{Pin: machine.D5}, cfg.Pattern.NumPixels)

	servo, err := hardware.NewServo(hardware.ServoConfig{
		PWM: machine.PWM0,
		Pin: machine.D6,
	})
	if err != nil {
		fail(logger, err)
	}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	d, err := device.New(cfg, strip, servo, device.WithLogger(logger), device.WithHeartbeat(led))
	if err != nil {
		fail(logger, err)
	}

	ble, err := transport.NewBLE(bluetooth.DefaultAdapter, transport.DefaultBLEConfig(), d.Handle)
	if err != nil {
		// the lamp still works over USB without the radio
		logger.Error("error starting BLE", "error", err)
	} else {
		d.Attach(ble)
	}

	d.Attach(transport.NewSerial(machine.Serial, machine.Serial, d.Handle))

	d.Run(context.Background())
}

func fail(logger device.Logger, err error) {
	for {
		logger.Error("startup failed", "error", err)
		time.Sleep(5 * time.Second)
	}
}
