package pattern

import (
	"math"
	"time"
)

// beatPhase returns how far through the current beat elapsed is, in [0, 1)
func beatPhase(bpm int, elapsed time.Duration) float64 {
	_, frac := math.Modf(elapsed.Minutes() * float64(bpm))
	return frac
}

// Beatsin16 oscillates between low and high (inclusive) bpm times per minute
func Beatsin16(bpm int, low, high int, elapsed time.Duration) int {
	wave := (math.Sin(2*math.Pi*beatPhase(bpm, elapsed)) + 1) / 2
	return low + int(math.Round(wave*float64(high-low)))
}

// Beatsin8 is Beatsin16 for 8-bit ranges
func Beatsin8(bpm int, low, high uint8, elapsed time.Duration) uint8 {
	return uint8(Beatsin16(bpm, int(low), int(high), elapsed))
}

// Sin8 maps x (a full turn is 256) onto a sine wave in [1, 255]
func Sin8(x uint8) uint8 {
	return uint8(math.Round(128 + 127*math.Sin(2*math.Pi*float64(x)/256)))
}
