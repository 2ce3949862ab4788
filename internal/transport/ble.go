package transport

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"
)

const (
	scanTimeout      = 15 * time.Second
	defaultChunkSize = 20
)

type characteristic byte

const (
	service  characteristic = 0x00
	writer   characteristic = 0x02
	notifier characteristic = 0x03
)

// 0000ffXX-0000-1000-8000-00805f9b34fb
func getUUID(c characteristic) bluetooth.UUID {
	return bluetooth.NewUUID([16]byte{
		0x00, 0x00, 0xff, byte(c), 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
	})
}

// BLE printer reached through its GATT write characteristic. Replies come
// back as notifications and are queued until read.
type BLE struct {
	device       bluetooth.Device
	writer       bluetooth.DeviceCharacteristic
	notifier     bluetooth.DeviceCharacteristic
	chunkSize    int
	inbox        *inbox
	disconnected atomic.Bool
}

// Scans for a device advertising name, or with the given address if name is
// empty, and connects to it.
func ConnectBLE(name, address string, chunkSize int) (*BLE, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("Couldn't enable bluetooth:\n%w", err)
	}

	found, err := scan(adapter, name, address)
	if err != nil {
		return nil, err
	}

	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	b := &BLE{
		chunkSize: chunkSize,
		inbox:     newInbox(ReadTimeout),
	}
	adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		if !connected && d.Address == found {
			slog.Info("Disconnected!", "address", found.String())
			b.disconnected.Store(true)
		}
	})

	if err := b.connect(adapter, found); err != nil {
		return nil, err
	}
	return b, nil
}

func scan(adapter *bluetooth.Adapter, name, address string) (bluetooth.Address, error) {
	devices := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if matches(result.LocalName(), result.Address.String(), name, address) {
				slog.Info("Found device", "deviceName", result.LocalName(), "address", result.Address.String())
				select {
				case devices <- result:
				default:
				}
				adapter.StopScan()
			}
		})
		if err != nil {
			slog.Error("Failed to scan for devices", "error", err)
			close(devices)
		}
	}()

	select {
	case dev, ok := <-devices:
		if !ok {
			return bluetooth.Address{}, fmt.Errorf("Couldn't scan for %s: %w", describe(name, address), ErrDeviceNotFound)
		}
		return dev.Address, nil
	case <-time.After(scanTimeout):
		adapter.StopScan()
		return bluetooth.Address{}, fmt.Errorf("no %s after %s: %w", describe(name, address), scanTimeout, ErrDeviceNotFound)
	}
}

func matches(localName, localAddress, name, address string) bool {
	if name != "" {
		return localName == name
	}
	return address != "" && strings.EqualFold(localAddress, address)
}

func describe(name, address string) string {
	if name != "" {
		return fmt.Sprintf("device named %q", name)
	}
	return "device at " + address
}

func (b *BLE) connect(adapter *bluetooth.Adapter, address bluetooth.Address) error {
	slog.Debug("Connecting to device...")
	device, err := adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("Couldn't connect to %s:\n%w", address.String(), err)
	}

	slog.Debug("Discovering service...")
	services, err := device.DiscoverServices([]bluetooth.UUID{getUUID(service)})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover printer service: %w", orNotFound(err))
	}

	slog.Debug("Discovering characteristics...")
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{getUUID(writer), getUUID(notifier)})
	if err != nil || len(characteristics) < 2 {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover printer characteristics: %w", orNotFound(err))
	}
	b.writer = characteristics[0]
	b.notifier = characteristics[1]

	if err := b.notifier.EnableNotifications(b.inbox.push); err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't enable notifications:\n%w", err)
	}

	b.device = device
	slog.Info("Connected!", "transport", "ble", "address", address.String())
	return nil
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return ErrDeviceNotFound
}

// Splits p into writes no bigger than the characteristic accepts.
func (b *BLE) Write(p []byte) (int, error) {
	if b.disconnected.Load() {
		return 0, ErrDisconnected
	}
	written := 0
	for chunk := range slices.Chunk(p, b.chunkSize) {
		n, err := b.writer.WriteWithoutResponse(chunk)
		written += n
		if err != nil {
			return written, err
		}
	}
	slog.Debug("Wrote data to device", "size", written)
	return written, nil
}

func (b *BLE) Read(p []byte) (int, error) {
	if b.disconnected.Load() {
		return 0, ErrDisconnected
	}
	return b.inbox.read(p)
}

func (b *BLE) Close() error {
	if b.disconnected.Swap(true) {
		return nil
	}
	return b.device.Disconnect()
}
