package hackablelamp

import "errors"

// Serial frames wrap a channel payload for byte-stream transports (USB serial):
//
//	[FrameHeader, channel, length, payload..., checksum]
//
// checksum is the 8-bit sum of channel, length and payload bytes.
const (
	FrameHeader     = 0xAA
	MaxFramePayload = 20
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds max frame size")
	ErrBadChecksum     = errors.New("frame checksum mismatch")
	ErrBadLength       = errors.New("frame length exceeds max payload")
)

// Frame is a decoded serial frame
type Frame struct {
	Channel Channel
	Payload []byte
}

// EncodeFrame builds the wire representation of a payload for the given channel
func EncodeFrame(ch Channel, payload []byte) ([]byte, error) {
	if len(payload) > MaxFramePayload {
		return nil, ErrPayloadTooLarge
	}

	out := make([]byte, 0, len(payload)+4)
	out = append(out, FrameHeader, byte(ch), byte(len(payload)))
	out = append(out, payload...)
	out = append(out, checksum(ch, payload))
	return out, nil
}

func checksum(ch Channel, payload []byte) byte {
	sum := byte(ch) + byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return sum
}

type decodeState int

const (
	stateHeader decodeState = iota
	stateChannel
	stateLength
	statePayload
	stateChecksum
)

// FrameDecoder reassembles frames from a byte stream one byte at a time. Bytes before a header are
// skipped so the decoder resynchronizes after line noise or a partial frame.
type FrameDecoder struct {
	state   decodeState
	channel Channel
	length  int
	buf     [MaxFramePayload]byte
	n       int
}

// Feed consumes one byte. It returns a complete frame and true when b finishes a valid frame. A
// frame with a bad length or checksum is dropped and reported with an error
func (d *FrameDecoder) Feed(b byte) (Frame, bool, error) {
	switch d.state {
	case stateHeader:
		if b == FrameHeader {
			d.state = stateChannel
		}
	case stateChannel:
		d.channel = Channel(b)
		d.state = stateLength
	case stateLength:
		if int(b) > MaxFramePayload {
			d.Reset()
			return Frame{}, false, ErrBadLength
		}
		d.length = int(b)
		d.n = 0
		d.state = statePayload
		if d.length == 0 {
			d.state = stateChecksum
		}
	case statePayload:
		d.buf[d.n] = b
		d.n++
		if d.n == d.length {
			d.state = stateChecksum
		}
	case stateChecksum:
		payload := make([]byte, d.length)
		copy(payload, d.buf[:d.length])
		ch := d.channel
		d.Reset()
		if checksum(ch, payload) != b {
			return Frame{}, false, ErrBadChecksum
		}
		return Frame{Channel: ch, Payload: payload}, true, nil
	}
	return Frame{}, false, nil
}

// Reset drops any partially decoded frame
func (d *FrameDecoder) Reset() {
	d.state = stateHeader
	d.channel = ChannelUnknown
	d.length = 0
	d.n = 0
}
