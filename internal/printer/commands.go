// This file implements the fixed command byte sequences understood by the
// printer, and the lengths of the replies to its queries.
package printer

import (
	"fmt"

	"tomgalvin.uk/thermalprint/internal/raster"
)

// Control characters
const (
	Esc = 0x1B
	GS  = 0x1D
	RS  = 0x1E
	LF  = 0x0A
)

type Command int

const (
	Initialize Command = iota
	QueryStatus
	QuerySerial
	QueryProductInfo
	StartPrint
	EndPrint
	RasterPayload
)

// Resets the printer & prepares it to accept commands
func initPrinter() []byte {
	return []byte{Esc, 0x40}
}

// Asks for the ASCII status blob (HV=, SV=, VOLT=, DPI=)
func queryStatus() []byte {
	return []byte{RS, 0x47, 0x03}
}

// Asks for the fixed-length serial number field
func querySerial() []byte {
	return []byte{GS, 0x67, 0x39}
}

// Asks for the fixed-length product info field
func queryProductInfo() []byte {
	return []byte{GS, 0x67, 0x69}
}

// Tells the printer a raster image is about to follow
func startPrint() []byte {
	return []byte{GS, 0x49, 0xF0, 0x19}
}

// Feeds the paper out past the tear bar once the image has been sent
func endPrint() []byte {
	return []byte{LF, LF, LF, LF}
}

// Returns the bytes for c. RasterPayload encodes to its opcode alone, the
// full frame comes from EncodeRaster.
func Encode(c Command) []byte {
	switch c {
	case Initialize:
		return initPrinter()
	case QueryStatus:
		return queryStatus()
	case QuerySerial:
		return querySerial()
	case QueryProductInfo:
		return queryProductInfo()
	case StartPrint:
		return startPrint()
	case EndPrint:
		return endPrint()
	case RasterPayload:
		return append([]byte{}, raster.Opcode[:]...)
	}
	return nil
}

// Header and packed rows of a raster image, written as one block.
func EncodeRaster(p *raster.Payload) []byte {
	return p.Bytes()
}

func (c Command) Bytes() []byte {
	return Encode(c)
}

// Number of bytes the device sends back after the command, 0 for commands
// that get no reply.
func (c Command) ResponseLength() int {
	switch c {
	case QueryStatus:
		return 38
	case QuerySerial:
		return 21
	case QueryProductInfo:
		return 16
	}
	return 0
}

func (c Command) IsQuery() bool {
	return c.ResponseLength() > 0
}

func (c Command) String() string {
	switch c {
	case Initialize:
		return "Initialize"
	case QueryStatus:
		return "QueryStatus"
	case QuerySerial:
		return "QuerySerial"
	case QueryProductInfo:
		return "QueryProductInfo"
	case StartPrint:
		return "StartPrint"
	case EndPrint:
		return "EndPrint"
	case RasterPayload:
		return "RasterPayload"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}
