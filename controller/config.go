package controller

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPortNone runs without a lamp attached. Commands are dropped
const SerialPortNone = "None"

const DefaultBaudRate = "115200"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// Config has the serial connection settings. Values are strings so they can be bound to UI entries
type Config struct {
	SerialPort string
	BaudRate   string
}

// ConfigFromEnv reads LAMP_SERIAL_PORT and LAMP_BAUD_RATE
func ConfigFromEnv() Config {
	cfg := Config{
		SerialPort: os.Getenv("LAMP_SERIAL_PORT"),
		BaudRate:   os.Getenv("LAMP_BAUD_RATE"),
	}
	if cfg.BaudRate == "" {
		cfg.BaudRate = DefaultBaudRate
	}
	return cfg
}

// Mode returns the serial mode for the configured baud rate
func (c Config) Mode() (*serial.Mode, error) {
	baud, err := strconv.Atoi(c.BaudRate)
	if err != nil {
		return nil, fmt.Errorf("invalid baud rate %q: %w", c.BaudRate, err)
	}
	if baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %q", c.BaudRate)
	}
	return &serial.Mode{BaudRate: baud}, nil
}

// GetSerialPorts lists USB serial ports. ErrNoUSBSerial is returned if there are none
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}
	return result, nil
}
