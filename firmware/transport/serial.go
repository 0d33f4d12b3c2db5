package transport

import (
	"io"

	"github.com/calvinmclean/hackablelamp"
)

// maxBytesPerPoll bounds the time a single Poll spends decoding
const maxBytesPerPoll = 64

// ByteReader is a non-blocking byte source, like machine.Serial
type ByteReader interface {
	Buffered() int
	ReadByte() (byte, error)
}

// Serial decodes framed commands from a byte stream and dispatches them synchronously from Poll.
// Notifications are written back as frames on the diagnostic channel
type Serial struct {
	r       ByteReader
	w       io.Writer
	decoder hackablelamp.FrameDecoder
	handler Handler
}

// NewSerial creates a Serial transport. w may be nil if notifications are not wanted
func NewSerial(r ByteReader, w io.Writer, handler Handler) *Serial {
	return &Serial{r: r, w: w, handler: handler}
}

// Poll decodes the buffered bytes. Complete frames are dispatched in arrival order. The first
// framing error is returned after all buffered bytes are consumed
func (s *Serial) Poll() error {
	var firstErr error
	for i := 0; i < maxBytesPerPoll && s.r.Buffered() > 0; i++ {
		b, err := s.r.ReadByte()
		if err != nil {
			break
		}

		frame, ok, err := s.decoder.Feed(b)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ok {
			s.handler(frame.Channel, frame.Payload)
		}
	}
	return firstErr
}

// Notify writes payload as a diagnostic frame
func (s *Serial) Notify(payload []byte) error {
	if s.w == nil {
		return nil
	}
	frame, err := hackablelamp.EncodeFrame(hackablelamp.ChannelDiagnostic, payload)
	if err != nil {
		return err
	}
	_, err = s.w.Write(frame)
	return err
}
