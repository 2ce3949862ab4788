package printer

import "time"

// The device never acknowledges a command, so the session waits on a Pacer
// after every write to give it time to act.
type Pacer interface {
	Settle(c Command)
}

const DefaultSettleDelay = 500 * time.Millisecond

// Sleeps for the same duration after every command.
type FixedDelay time.Duration

func (d FixedDelay) Settle(Command) {
	if d > 0 {
		time.Sleep(time.Duration(d))
	}
}

var NoDelay Pacer = FixedDelay(0)

// Adapts a plain function to a Pacer.
type PacerFunc func(c Command)

func (f PacerFunc) Settle(c Command) {
	f(c)
}
