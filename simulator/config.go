package simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/calvinmclean/hackablelamp/firmware/device"
	"github.com/calvinmclean/hackablelamp/firmware/pattern"
)

// Duration is a time.Duration written as a string in TOML, like "20ms"
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the simulator configuration file
type Config struct {
	LogLevel       string   `toml:"log_level"`
	StatusInterval Duration `toml:"status_interval"`
	// EchoAll echoes every command to the diagnostic channel
	EchoAll bool `toml:"echo_all"`

	Pixels  PixelsConfig  `toml:"pixels"`
	Shutter ShutterConfig `toml:"shutter"`

	// OPC sends frames to an Open Pixel Control server when Address is set
	OPC OPCConfig `toml:"opc"`
	// Terminal draws the strip as a row of colored blocks
	Terminal bool `toml:"terminal"`
	// BLE also exposes the simulated lamp as a BLE peripheral
	BLE bool `toml:"ble"`

	// SerialPort reads commands from a serial port instead of stdin
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`
}

type PixelsConfig struct {
	Count         int      `toml:"count"`
	Brightness    uint8    `toml:"brightness"`
	FrameInterval Duration `toml:"frame_interval"`
	HueInterval   Duration `toml:"hue_interval"`
	// InitialColor is a hex color like "#ff8800"
	InitialColor string `toml:"initial_color"`
}

type ShutterConfig struct {
	RefreshPeriod   Duration `toml:"refresh_period"`
	MinAngle        int      `toml:"min_angle"`
	MaxAngle        int      `toml:"max_angle"`
	InitialPosition int      `toml:"initial_position"`
}

type OPCConfig struct {
	Address string `toml:"address"`
	Channel uint8  `toml:"channel"`
}

// DefaultConfig matches the firmware defaults and draws to the terminal
func DefaultConfig() Config {
	dev := device.DefaultConfig()
	return Config{
		LogLevel:       "info",
		StatusInterval: Duration(5 * time.Second),
		Pixels: PixelsConfig{
			Count:         dev.Pattern.NumPixels,
			Brightness:    dev.Pattern.Brightness,
			FrameInterval: Duration(dev.Pattern.FrameInterval),
			HueInterval:   Duration(dev.Pattern.HueInterval),
			InitialColor:  "#ffffff",
		},
		Shutter: ShutterConfig{
			RefreshPeriod:   Duration(dev.Actuator.RefreshPeriod),
			MinAngle:        dev.Actuator.MinAngle,
			MaxAngle:        dev.Actuator.MaxAngle,
			InitialPosition: dev.Actuator.InitialPosition,
		},
		Terminal: true,
		BaudRate: 115200,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. An empty path returns the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would make the device fail to start
func (c Config) Validate() error {
	if c.Pixels.Count <= 0 {
		return errors.New("pixels.count must be positive")
	}
	if c.Shutter.MaxAngle <= c.Shutter.MinAngle {
		return errors.New("shutter.max_angle must be greater than shutter.min_angle")
	}
	_, err := parseHex(c.Pixels.InitialColor)
	if err != nil {
		return fmt.Errorf("invalid pixels.initial_color: %w", err)
	}
	return nil
}

// DeviceConfig converts the file format into the device settings
func (c Config) DeviceConfig() (device.Config, error) {
	initial, err := parseHex(c.Pixels.InitialColor)
	if err != nil {
		return device.Config{}, err
	}

	cfg := device.DefaultConfig()
	cfg.Pattern = pattern.Config{
		NumPixels:     c.Pixels.Count,
		FrameInterval: time.Duration(c.Pixels.FrameInterval),
		HueInterval:   time.Duration(c.Pixels.HueInterval),
		Brightness:    c.Pixels.Brightness,
		InitialColor:  initial,
	}
	cfg.Actuator.RefreshPeriod = time.Duration(c.Shutter.RefreshPeriod)
	cfg.Actuator.MinAngle = c.Shutter.MinAngle
	cfg.Actuator.MaxAngle = c.Shutter.MaxAngle
	cfg.Actuator.InitialPosition = c.Shutter.InitialPosition
	cfg.EchoAll = c.EchoAll
	cfg.StatusInterval = time.Duration(c.StatusInterval)
	return cfg, nil
}

// Level parses LogLevel, defaulting to info
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
