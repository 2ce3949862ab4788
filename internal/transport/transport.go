// Package transport opens the byte stream a printer session talks over.
// Every handle is blocking and owned by a single session.
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"tomgalvin.uk/thermalprint/internal/config"
)

// How long a read waits for the device to answer before giving up.
const ReadTimeout = 2 * time.Second

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrReadTimeout    = errors.New("timed out waiting for the device")
	ErrWriteOnly      = errors.New("transport is write only")
	ErrDisconnected   = errors.New("device disconnected")
	ErrUnsupported    = errors.New("transport not supported on this platform")
)

type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Opens whichever transport the device configuration names.
func Open(cfg config.Device) (Transport, error) {
	if err := cfg.CheckEndpoint(); err != nil {
		return nil, err
	}

	var (
		t   Transport
		err error
	)
	switch cfg.Transport {
	case config.TransportRFCOMM:
		t, err = DialRFCOMM(cfg.Address, cfg.Channel)
	case config.TransportSerial:
		t, err = OpenSerial(cfg.SerialPort, cfg.BaudRate)
	case config.TransportBLE:
		t, err = ConnectBLE(cfg.BLEName, cfg.Address, cfg.BLEChunkSize)
	case config.TransportUSB:
		t, err = OpenUSB(cfg.USBVendorID, cfg.USBProductID)
	case config.TransportFile:
		t, err = CreateFile(cfg.OutputPath)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("Couldn't open %s transport:\n%w", cfg.Transport, err)
	}
	return t, nil
}
