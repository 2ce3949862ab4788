package transport

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// Serial port, including an RFCOMM channel bound to /dev/rfcommN.
type Serial struct {
	serial.Port
	name string
}

func OpenSerial(name string, baudRate int) (*Serial, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("Couldn't open serial port %s:\n%w", name, err)
	}

	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("Couldn't set read timeout on %s:\n%w", name, err)
	}

	slog.Info("Connected!", "transport", "serial", "port", name, "baudRate", baudRate)
	return &Serial{Port: port, name: name}, nil
}

// A read that times out returns no bytes rather than an error.
func (s *Serial) Read(p []byte) (int, error) {
	n, err := s.Port.Read(p)
	if err == nil && n == 0 {
		return 0, ErrReadTimeout
	}
	return n, err
}
