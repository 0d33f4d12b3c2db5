package hackablelamp

// DeviceName is the name the lamp advertises over BLE
const DeviceName = "HackableLamp"

// BLE service and characteristic UUIDs. The service and RX/TX pair follow the Nordic UART layout so
// generic BLE terminals can talk to the lamp. The typed control characteristics are used by the remote app.
const (
	ServiceUUID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
	RXCharUUID  = "6E400002-B5A3-F393-E0A9-E50E24DCCA9E"
	TXCharUUID  = "6E400003-B5A3-F393-E0A9-E50E24DCCA9E"

	ShutterCharUUID = "f6c2b240-1b0a-46d5-9c5a-9b4a22d7e301"
	RGBCharUUID     = "f6c2b240-1b0a-46d5-9c5a-9b4a22d7e302"
	AnimCharUUID    = "f6c2b240-1b0a-46d5-9c5a-9b4a22d7e303"
)

// Channel identifies the logical control point a payload arrived on
type Channel uint8

const (
	ChannelUnknown Channel = iota
	// ChannelShutter carries 1 byte: actuator percent 0-100
	ChannelShutter
	// ChannelColor carries 3 bytes: R, G, B
	ChannelColor
	// ChannelPattern carries 1 byte: pattern id
	ChannelPattern
	// ChannelUART is the free-form RX channel. Writes are only echoed
	ChannelUART
	// ChannelDiagnostic is the notify-only TX channel
	ChannelDiagnostic
)

func (c Channel) String() string {
	switch c {
	case ChannelShutter:
		return "Shutter"
	case ChannelColor:
		return "Color"
	case ChannelPattern:
		return "Pattern"
	case ChannelUART:
		return "UART"
	case ChannelDiagnostic:
		return "Diagnostic"
	default:
		fallthrough
	case ChannelUnknown:
		return "Unknown"
	}
}

// PatternID is the index of an animation in the lamp's pattern registry. The order must match the
// list shown by the remote app
type PatternID uint8

const (
	PatternSolidColor PatternID = iota
	PatternRainbow
	PatternRainbowGlitter
	PatternConfetti
	PatternSinelon
	PatternBPM
	PatternJuggle
	PatternFire
	PatternTwinkle
	PatternCylon
	PatternLightning
	PatternColorWaves
	PatternNoise

	// NumPatterns is the number of built-in patterns
	NumPatterns
)

var patternNames = [NumPatterns]string{
	"Solid Color",
	"Rainbow",
	"Rainbow w/ Glitter",
	"Confetti",
	"Sinelon",
	"BPM",
	"Juggle",
	"Fire",
	"Twinkle",
	"Cylon",
	"Lightning",
	"Color Waves",
	"Noise",
}

func (p PatternID) String() string {
	if p >= NumPatterns {
		return "Unknown"
	}
	return patternNames[p]
}

// PatternNames returns the display names of all built-in patterns in registry order
func PatternNames() []string {
	names := make([]string, NumPatterns)
	copy(names, patternNames[:])
	return names
}
