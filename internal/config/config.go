// Package config describes the printer being driven and how to reach it,
// loaded from a config file, THERMALPRINT_ environment variables and
// command line flags in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	TransportRFCOMM = "rfcomm"
	TransportSerial = "serial"
	TransportBLE    = "ble"
	TransportUSB    = "usb"
	TransportFile   = "file"
)

var transports = []string{TransportRFCOMM, TransportSerial, TransportBLE, TransportUSB, TransportFile}

const (
	envPrefix  = "THERMALPRINT"
	configName = "thermalprint"
	// largest width whose byte count still fits the 16-bit raster header
	maxWidth = 0xFFFF * 8
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Device struct {
	Model        string        `mapstructure:"model"`
	Width        int           `mapstructure:"width"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	Transport    string        `mapstructure:"transport"`
	Address      string        `mapstructure:"address"`
	Channel      int           `mapstructure:"channel"`
	SerialPort   string        `mapstructure:"serial_port"`
	BaudRate     int           `mapstructure:"baud_rate"`
	BLEName      string        `mapstructure:"ble_name"`
	BLEChunkSize int           `mapstructure:"ble_chunk_size"`
	USBVendorID  uint16        `mapstructure:"usb_vendor_id"`
	USBProductID uint16        `mapstructure:"usb_product_id"`
	OutputPath   string        `mapstructure:"output_path"`
	FontPath     string        `mapstructure:"font_path"`
	FontSize     float64       `mapstructure:"font_size"`
	JournalPath  string        `mapstructure:"journal_path"`
}

func Default() Device {
	return Device{
		Model:        "default",
		Width:        profiles["default"].Width,
		SettleDelay:  500 * time.Millisecond,
		Transport:    TransportRFCOMM,
		Channel:      2,
		BaudRate:     115200,
		BLEChunkSize: 20,
		FontSize:     40,
	}
}

// Adds the flags Load reads to a flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "config file (default ./thermalprint.yaml)")
	flags.String("model", d.Model, "printer model: "+strings.Join(ProfileNames(), ", "))
	flags.Int("width", 0, "print head width in dots (0 uses the model's width)")
	flags.Duration("settle-delay", d.SettleDelay, "time to wait after each command")
	flags.StringP("transport", "t", d.Transport, "how to reach the printer: "+strings.Join(transports, ", "))
	flags.StringP("address", "a", "", "bluetooth address of the printer")
	flags.Int("channel", d.Channel, "RFCOMM channel")
	flags.String("serial-port", "", "serial device, e.g. /dev/rfcomm0")
	flags.Int("baud-rate", d.BaudRate, "serial baud rate")
	flags.String("ble-name", "", "advertised name of a BLE printer")
	flags.Int("ble-chunk-size", d.BLEChunkSize, "largest write to a BLE characteristic")
	flags.Uint16("usb-vendor-id", 0, "USB vendor id (0 finds any printer)")
	flags.Uint16("usb-product-id", 0, "USB product id")
	flags.String("dry-run", "", "write the command bytes to this file instead of a printer")
	flags.String("font", "", "TrueType/OpenType font for text")
	flags.Float64("font-size", d.FontSize, "font size in points")
	flags.String("journal", "", "sqlite database recording prints and status queries")
}

// viper key to flag name
var flagKeys = map[string]string{
	"model":          "model",
	"width":          "width",
	"settle_delay":   "settle-delay",
	"transport":      "transport",
	"address":        "address",
	"channel":        "channel",
	"serial_port":    "serial-port",
	"baud_rate":      "baud-rate",
	"ble_name":       "ble-name",
	"ble_chunk_size": "ble-chunk-size",
	"usb_vendor_id":  "usb-vendor-id",
	"usb_product_id": "usb-product-id",
	"output_path":    "dry-run",
	"font_path":      "font",
	"font_size":      "font-size",
	"journal_path":   "journal",
}

// Reads the device configuration. flags may be nil, otherwise it should
// have been set up with RegisterFlags and parsed.
func Load(flags *pflag.FlagSet) (Device, error) {
	v := viper.New()
	d := Default()

	v.SetDefault("model", d.Model)
	v.SetDefault("width", 0)
	v.SetDefault("settle_delay", d.SettleDelay)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("channel", d.Channel)
	v.SetDefault("baud_rate", d.BaudRate)
	v.SetDefault("ble_chunk_size", d.BLEChunkSize)
	v.SetDefault("font_size", d.FontSize)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for key := range flagKeys {
		if err := v.BindEnv(key); err != nil {
			return Device{}, fmt.Errorf("Couldn't bind environment variable for %s:\n%w", key, err)
		}
	}

	configFile := ""
	if flags != nil {
		configFile, _ = flags.GetString("config")
		for key, name := range flagKeys {
			if flag := flags.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return Device{}, fmt.Errorf("Couldn't bind flag %s:\n%w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return Device{}, err
	}

	if err := v.Unmarshal(&d); err != nil {
		return Device{}, fmt.Errorf("Couldn't decode configuration:\n%w", err)
	}

	// an output file means a dry run whatever the transport says
	if d.OutputPath != "" {
		d.Transport = TransportFile
	}

	if d.Width == 0 {
		if p, ok := LookupProfile(d.Model); ok {
			d.Width = p.Width
		}
	}

	if err := d.Validate(); err != nil {
		return Device{}, err
	}
	return d, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !(path == "" && errors.As(err, &notFound)) {
		return fmt.Errorf("Couldn't read config file:\n%w", err)
	}
	return nil
}

// Checks the values are usable. Whether the chosen transport has somewhere
// to connect to is left to CheckEndpoint.
func (d Device) Validate() error {
	var errs []error
	if _, ok := LookupProfile(d.Model); !ok {
		errs = append(errs, fmt.Errorf("unknown model %q", d.Model))
	}
	if d.Width <= 0 || d.Width > maxWidth {
		errs = append(errs, fmt.Errorf("width must be between 1 and %d, got %d", maxWidth, d.Width))
	}
	if d.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay can't be negative, got %s", d.SettleDelay))
	}
	if d.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font size must be positive, got %v", d.FontSize))
	}
	if d.Channel < 1 || d.Channel > 30 {
		errs = append(errs, fmt.Errorf("RFCOMM channel must be between 1 and 30, got %d", d.Channel))
	}
	if d.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud rate must be positive, got %d", d.BaudRate))
	}
	if d.BLEChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("BLE chunk size must be positive, got %d", d.BLEChunkSize))
	}
	if !slices.Contains(transports, d.Transport) {
		errs = append(errs, fmt.Errorf("unknown transport %q, expecting one of %s", d.Transport, strings.Join(transports, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Checks the chosen transport knows which device to open.
func (d Device) CheckEndpoint() error {
	var err error
	switch d.Transport {
	case TransportRFCOMM:
		if d.Address == "" {
			err = errors.New("rfcomm transport needs an address")
		}
	case TransportSerial:
		if d.SerialPort == "" {
			err = errors.New("serial transport needs a serial port")
		}
	case TransportBLE:
		if d.BLEName == "" && d.Address == "" {
			err = errors.New("ble transport needs a device name or address")
		}
	case TransportFile:
		if d.OutputPath == "" {
			err = errors.New("file transport needs an output path")
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
