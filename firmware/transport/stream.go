package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/calvinmclean/hackablelamp"
)

// Stream adapts a blocking reader (a host serial port, stdin, a pipe) to the control loop. Frames
// are decoded on a reader goroutine and handed over through a Queue
type Stream struct {
	r       io.Reader
	w       io.Writer
	queue   *Queue
	handler Handler

	mtx         sync.Mutex
	readErr     error
	frameErrors int
	done        chan struct{}
}

// NewStream creates a Stream. Call Start to begin reading
func NewStream(r io.Reader, w io.Writer, handler Handler) *Stream {
	return &Stream{
		r:       r,
		w:       w,
		queue:   NewQueue(DefaultQueueSize),
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start reads frames until the reader fails or ctx is done. The read itself is not interruptible,
// so the reader goroutine exits on the next byte or error after cancellation
func (s *Stream) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		br := bufio.NewReader(s.r)
		var decoder hackablelamp.FrameDecoder
		for {
			b, err := br.ReadByte()
			if err != nil {
				s.setErr(err)
				return
			}
			if ctx.Err() != nil {
				return
			}

			frame, ok, err := decoder.Feed(b)
			if err != nil {
				s.mtx.Lock()
				s.frameErrors++
				s.mtx.Unlock()
			}
			if ok {
				s.queue.Push(frame.Channel, frame.Payload)
			}
		}
	}()
}

func (s *Stream) setErr(err error) {
	s.mtx.Lock()
	s.readErr = err
	s.mtx.Unlock()
}

// Poll dispatches the frames decoded since the last Poll
func (s *Stream) Poll() error {
	s.queue.Drain(s.handler)
	return nil
}

// Notify writes payload as a diagnostic frame
func (s *Stream) Notify(payload []byte) error {
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

// Done is closed when the reader goroutine exits
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the reader, if any. io.EOF means the input was closed
func (s *Stream) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.readErr
}

// FrameErrors returns the number of corrupt frames seen
func (s *Stream) FrameErrors() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.frameErrors
}
