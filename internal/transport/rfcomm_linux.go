package transport

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// Classic bluetooth serial connection to the printer.
type RFCOMM struct {
	*os.File
	address string
}

func DialRFCOMM(address string, channel int) (*RFCOMM, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("Couldn't create RFCOMM socket:\n%w", err)
	}

	timeout := unix.NsecToTimeval(ReadTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &timeout); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("Couldn't set read timeout:\n%w", err)
	}

	slog.Debug("Connecting to device...", "address", address, "channel", channel)
	if err := unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: addr, Channel: uint8(channel)}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("Couldn't connect to %s on channel %d:\n%w", address, channel, err)
	}

	slog.Info("Connected!", "transport", "rfcomm", "address", address)
	return &RFCOMM{
		File:    os.NewFile(uintptr(fd), "rfcomm:"+address),
		address: address,
	}, nil
}
