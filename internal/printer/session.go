// Package printer drives a thermal printer over an already open byte stream:
// it frames commands, paces them, reads query replies and tracks the state
// of the connection.
package printer

import (
	"fmt"
	"io"
	"log/slog"

	"tomgalvin.uk/thermalprint/internal/bitmap"
	"tomgalvin.uk/thermalprint/internal/raster"
)

// Largest reply read in one go. Bigger than any fixed reply so that an
// overlong answer shows up as a length mismatch instead of being truncated.
const maxReplySize = 256

// Default print head width in dots, 48 bytes per row.
const DefaultWidth = 384

// A connected byte stream to the device. If it also implements io.Closer it
// is closed with the session.
type Transport interface {
	io.Reader
	io.Writer
}

type State int

const (
	Disconnected State = iota
	Connected
	Ready
	Printing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Ready:
		return "ready"
	case Printing:
		return "printing"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// A single conversation with one printer. A Session isn't safe for
// concurrent use.
type Session struct {
	transport Transport
	pacer     Pacer
	width     int
	logger    *slog.Logger
	state     State
}

type Option func(*Session)

func WithPacer(p Pacer) Option {
	return func(s *Session) {
		s.pacer = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Print head width in dots used by PrintCanvas.
func WithWidth(width int) Option {
	return func(s *Session) {
		s.width = width
	}
}

// Wraps an open transport. A nil transport gives a Disconnected session
// that can only be closed.
func NewSession(t Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		pacer:     FixedDelay(DefaultSettleDelay),
		width:     DefaultWidth,
		logger:    slog.Default(),
		state:     Connected,
	}
	if t == nil {
		s.state = Disconnected
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Width() int {
	return s.width
}

func (s *Session) require(allowed ...State) error {
	for _, state := range allowed {
		if s.state == state {
			return nil
		}
	}
	if s.state == Closed {
		return ErrSessionClosed
	}
	return fmt.Errorf("%w: session is %s", ErrInvalidState, s.state)
}

// Resets the printer. Valid once connected, and again whenever Ready.
func (s *Session) Initialize() error {
	if err := s.require(Connected, Ready); err != nil {
		return err
	}
	if err := s.send(Initialize, Encode(Initialize)); err != nil {
		return err
	}
	s.state = Ready
	s.logger.Debug("Initialised printer")
	return nil
}

// Sends a raster payload between the start and end print commands.
func (s *Session) Print(p *raster.Payload) error {
	if err := s.require(Ready); err != nil {
		return err
	}
	if p == nil {
		return ErrNoPayload
	}
	s.state = Printing
	s.logger.Info("Printing", "payload", p.String())

	if err := s.send(StartPrint, Encode(StartPrint)); err != nil {
		return err
	}
	if err := s.send(RasterPayload, EncodeRaster(p)); err != nil {
		return err
	}
	if err := s.send(EndPrint, Encode(EndPrint)); err != nil {
		return err
	}

	s.state = Ready
	return nil
}

// Normalises c for this session's print width, then prints it. Nothing is
// written if the canvas can't be framed.
func (s *Session) PrintCanvas(c *bitmap.Canvas) error {
	if err := s.require(Ready); err != nil {
		return err
	}
	payload, err := raster.Normalize(c, s.width)
	if err != nil {
		return fmt.Errorf("Couldn't prepare image for printing:\n%w", err)
	}
	return s.Print(payload)
}

// Sends a query command and reads its reply. A reply of the wrong length is
// returned without an error, see Reply.Err.
func (s *Session) Query(c Command) (Reply, error) {
	if err := s.require(Ready); err != nil {
		return Reply{Command: c}, err
	}
	if !c.IsQuery() {
		return Reply{Command: c}, fmt.Errorf("%s is not a query", c)
	}
	if err := s.send(c, Encode(c)); err != nil {
		return Reply{Command: c}, err
	}

	buf := make([]byte, max(maxReplySize, c.ResponseLength()))
	n, err := s.transport.Read(buf)
	if n == 0 && err == nil {
		err = io.ErrNoProgress
	}
	if n == 0 {
		return Reply{Command: c}, s.fail("read", c, err)
	}

	reply := DecodeReply(c, buf[:n])
	if reply.UnexpectedLength() {
		s.logger.Warn("Unexpected reply length", "command", c, "got", n, "want", c.ResponseLength())
	} else {
		s.logger.Debug("Received reply", "command", c, "size", n)
	}
	return reply, nil
}

func (s *Session) Status() (PrinterStatus, error) {
	reply, err := s.Query(QueryStatus)
	if err != nil {
		return PrinterStatus{}, err
	}
	return ParseStatus(reply.Data), nil
}

// Serial number and product info replies, queried in that order.
func (s *Session) Info() (serial, product Reply, err error) {
	serial, err = s.Query(QuerySerial)
	if err != nil {
		return serial, product, err
	}
	product, err = s.Query(QueryProductInfo)
	return serial, product, err
}

// Queries status, serial number and product info.
func (s *Session) Report() (StatusReport, error) {
	status, err := s.Query(QueryStatus)
	if err != nil {
		return StatusReport{}, err
	}
	serial, product, err := s.Info()
	if err != nil {
		return StatusReport{}, err
	}
	return NewReport(status, serial, product), nil
}

// Releases the transport. Closing a session that never connected, or one
// already closed, does nothing.
func (s *Session) Close() error {
	if s.state == Disconnected || s.state == Closed {
		return nil
	}
	s.state = Closed
	if closer, ok := s.transport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("Couldn't close transport:\n%w", err)
		}
	}
	s.logger.Debug("Closed session")
	return nil
}

func (s *Session) send(c Command, data []byte) error {
	n, err := s.transport.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return s.fail("write", c, err)
	}
	s.logger.Debug("Wrote command", "command", c, "size", n)
	s.pacer.Settle(c)
	return nil
}

// Closes the session after a transport failure; the handle is in an unknown
// state and isn't reused.
func (s *Session) fail(op string, c Command, err error) error {
	s.logger.Error("Transport failure", "op", op, "command", c, "error", err)
	if closeErr := s.Close(); closeErr != nil {
		s.logger.Warn("Couldn't close transport after failure", "error", closeErr)
	}
	return &TransportError{Op: op, Command: c, Err: err}
}
