//go:build !linux

package transport

import (
	"fmt"
	"os"
)

type RFCOMM struct {
	*os.File
	address string
}

// RFCOMM sockets are only available through the Linux bluetooth stack; use
// the serial transport with a bound port elsewhere.
func DialRFCOMM(address string, channel int) (*RFCOMM, error) {
	if _, err := parseAddress(address); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("rfcomm: %w", ErrUnsupported)
}
