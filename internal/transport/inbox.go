package transport

import (
	"log/slog"
	"time"
)

// Notifications that arrive within this long of each other are one reply.
const notificationGap = 50 * time.Millisecond

// Queues bytes pushed from a callback until a blocking read collects them.
type inbox struct {
	received chan []byte
	pending  []byte
	timeout  time.Duration
	gap      time.Duration
}

func newInbox(timeout time.Duration) *inbox {
	return &inbox{
		received: make(chan []byte, 64),
		timeout:  timeout,
		gap:      notificationGap,
	}
}

func (in *inbox) push(data []byte) {
	select {
	case in.received <- append([]byte{}, data...):
	default:
		slog.Warn("Dropped notification, nothing is reading", "size", len(data))
	}
}

// Waits up to the timeout for the first bytes, then keeps collecting until
// the device goes quiet.
func (in *inbox) read(p []byte) (int, error) {
	if len(in.pending) == 0 {
		select {
		case data := <-in.received:
			in.pending = data
		case <-time.After(in.timeout):
			return 0, ErrReadTimeout
		}
	gather:
		for {
			select {
			case data := <-in.received:
				in.pending = append(in.pending, data...)
			case <-time.After(in.gap):
				break gather
			}
		}
	}

	n := copy(p, in.pending)
	in.pending = in.pending[n:]
	return n, nil
}
