package transport

import (
	"fmt"
	"net"
)

// Bluetooth sockets take the device address least significant byte first.
func parseAddress(address string) ([6]byte, error) {
	var addr [6]byte
	hw, err := net.ParseMAC(address)
	if err != nil {
		return addr, fmt.Errorf("invalid bluetooth address %q: %w", address, err)
	}
	if len(hw) != len(addr) {
		return addr, fmt.Errorf("bluetooth address must be %d bytes, got %d", len(addr), len(hw))
	}
	for i := range addr {
		addr[i] = hw[len(hw)-1-i]
	}
	return addr, nil
}
