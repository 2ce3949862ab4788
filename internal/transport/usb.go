package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/gousb"
)

// Interface class code for printers
// Reference: http://www.usb.org/developers/defined_class
const ifaceClassPrinter = 0x07

// USB printer class device, talked to over its bulk endpoints.
type USB struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	iface  *gousb.Interface
	out    *gousb.OutEndpoint
	in     *gousb.InEndpoint
}

// Opens the device with the given ids, or the first printer class device
// found when vendorID is 0.
func OpenUSB(vendorID, productID uint16) (*USB, error) {
	u := &USB{ctx: gousb.NewContext()}

	var err error
	if vendorID != 0 {
		u.device, err = u.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
		if err == nil && u.device == nil {
			err = ErrDeviceNotFound
		}
	} else {
		u.device, err = findPrinter(u.ctx)
	}
	if err != nil {
		u.ctx.Close()
		return nil, fmt.Errorf("Couldn't open USB printer %04x:%04x:\n%w", vendorID, productID, err)
	}

	if err := u.claim(); err != nil {
		u.Close()
		return nil, err
	}

	slog.Info("Connected!", "transport", "usb", "device", u.device.String())
	return u, nil
}

func isPrinter(desc gousb.InterfaceDesc) bool {
	for _, alt := range desc.AltSettings {
		if alt.Class == ifaceClassPrinter {
			return true
		}
	}
	return false
}

func findPrinter(ctx *gousb.Context) (*gousb.Device, error) {
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		for _, cfg := range desc.Configs {
			for _, iface := range cfg.Interfaces {
				if isPrinter(iface) {
					return true
				}
			}
		}
		return false
	})
	if len(devices) == 0 {
		return nil, errors.Join(ErrDeviceNotFound, err)
	}
	for _, d := range devices[1:] {
		d.Close()
	}
	return devices[0], nil
}

func (u *USB) claim() error {
	if runtime.GOOS == "linux" {
		u.device.SetAutoDetach(true)
	}

	cfgNum, err := u.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("Couldn't get active config:\n%w", err)
	}
	u.config, err = u.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("Couldn't get config:\n%w", err)
	}

	ifaceNum := -1
	for _, iface := range u.config.Desc.Interfaces {
		if isPrinter(iface) {
			ifaceNum = iface.Number
			break
		}
	}
	if ifaceNum < 0 {
		return errors.New("no printer interface found")
	}

	u.iface, err = u.config.Interface(ifaceNum, 0)
	if err != nil {
		return fmt.Errorf("Couldn't claim interface:\n%w", err)
	}

	for _, ep := range u.iface.Setting.Endpoints {
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && u.out == nil:
			u.out, _ = u.iface.OutEndpoint(ep.Number)
		case ep.Direction == gousb.EndpointDirectionIn && u.in == nil:
			u.in, _ = u.iface.InEndpoint(ep.Number)
		}
	}
	if u.out == nil {
		return errors.New("no output endpoint on printer interface")
	}
	return nil
}

func (u *USB) Write(p []byte) (int, error) {
	return u.out.Write(p)
}

// Printers without an input endpoint can't answer queries.
func (u *USB) Read(p []byte) (int, error) {
	if u.in == nil {
		return 0, ErrWriteOnly
	}
	ctx, cancel := context.WithTimeout(context.Background(), ReadTimeout)
	defer cancel()
	n, err := u.in.ReadContext(ctx, p)
	if err != nil && ctx.Err() != nil {
		return n, ErrReadTimeout
	}
	return n, err
}

func (u *USB) Close() error {
	var errs []error
	if u.iface != nil {
		u.iface.Close()
		u.iface = nil
	}
	if u.config != nil {
		errs = append(errs, u.config.Close())
		u.config = nil
	}
	if u.device != nil {
		errs = append(errs, u.device.Close())
		u.device = nil
	}
	if u.ctx != nil {
		errs = append(errs, u.ctx.Close())
		u.ctx = nil
	}
	return errors.Join(errs...)
}
