package printer

import (
	"errors"
	"fmt"
)

var (
	ErrTransport        = errors.New("transport failure")
	ErrUnexpectedLength = errors.New("unexpected reply length")
	ErrInvalidState     = errors.New("invalid session state")
	ErrSessionClosed    = errors.New("session closed")
	ErrNoPayload        = errors.New("no payload to print")
)

// A read or write on the transport failed. The session is closed by the time
// this is returned.
type TransportError struct {
	Op      string
	Command Command
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s of %s: %v", e.Op, e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// A query reply didn't have the length the protocol fixes for it.
type LengthError struct {
	Command   Command
	Got, Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("unexpected reply length for %s: got %d bytes, expecting %d", e.Command, e.Got, e.Want)
}

func (e *LengthError) Is(target error) bool {
	return target == ErrUnexpectedLength
}
