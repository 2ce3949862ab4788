package printer

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Value reported for any field that couldn't be found or understood.
const Unknown = "unknown"

const (
	hardwareVersionMarker = "HV="
	softwareVersionMarker = "SV="
	voltageMarker         = "VOLT="
	dpiMarker             = "DPI="
)

type PrinterStatus struct {
	HardwareVersion string
	SoftwareVersion string
	Voltage         string
	DPI             string
}

// Everything the device says about itself. SerialNumber and ProductInfo are
// nil when their reply had the wrong length.
type StatusReport struct {
	Printer      PrinterStatus
	SerialNumber *string
	ProductInfo  *string
}

// Keeps non-NUL ASCII only. Ill-formed bytes become U+FFFD first so
// they get dropped along with everything else outside ASCII.
func asciiOnly() transform.Transformer {
	return transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r == 0 || r > unicode.MaxASCII
		})),
	)
}

func sanitise(raw []byte) string {
	out, _, err := transform.Bytes(asciiOnly(), raw)
	if err != nil {
		return ""
	}
	return string(out)
}

// Pulls the fields out of a status reply. Never fails: anything missing or
// malformed reads Unknown.
func ParseStatus(raw []byte) PrinterStatus {
	text := sanitise(raw)
	return PrinterStatus{
		HardwareVersion: textField(text, hardwareVersionMarker),
		SoftwareVersion: textField(text, softwareVersionMarker),
		Voltage:         voltageField(text),
		DPI:             textField(text, dpiMarker),
	}
}

// Text after the marker up to the next comma or the end, trimmed.
func field(text, marker string) (string, bool) {
	i := strings.Index(text, marker)
	if i < 0 {
		return "", false
	}
	value := text[i+len(marker):]
	if j := strings.IndexByte(value, ','); j >= 0 {
		value = value[:j]
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func textField(text, marker string) string {
	value, ok := field(text, marker)
	if !ok {
		return Unknown
	}
	return value
}

// Millivolts on the wire, volts in the report, e.g. "4200mv" is "4.2V".
func voltageField(text string) string {
	value, ok := field(text, voltageMarker)
	if !ok {
		return Unknown
	}
	if strings.HasSuffix(strings.ToLower(value), "mv") {
		value = strings.TrimSpace(value[:len(value)-2])
	}
	if value == "" || strings.IndexFunc(value, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return Unknown
	}
	millivolts, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return Unknown
	}
	volts := strconv.FormatFloat(float64(millivolts)/1000, 'f', -1, 64)
	if !strings.Contains(volts, ".") {
		volts += ".0"
	}
	return volts + "V"
}

// Decodes a serial number or product info reply: ASCII with the NUL padding
// removed. Nil if the reply had the wrong length.
func DecodeText(r Reply) *string {
	if r.Err() != nil {
		return nil
	}
	text := strings.TrimSpace(sanitise(r.Data))
	return &text
}

func NewReport(status, serial, product Reply) StatusReport {
	return StatusReport{
		Printer:      ParseStatus(status.Data),
		SerialNumber: DecodeText(serial),
		ProductInfo:  DecodeText(product),
	}
}
