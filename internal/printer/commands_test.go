package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tomgalvin.uk/thermalprint/internal/raster"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		command        Command
		want           []byte
		responseLength int
	}{
		{Initialize, []byte{0x1B, 0x40}, 0},
		{QueryStatus, []byte{0x1E, 0x47, 0x03}, 38},
		{QuerySerial, []byte{0x1D, 0x67, 0x39}, 21},
		{QueryProductInfo, []byte{0x1D, 0x67, 0x69}, 16},
		{StartPrint, []byte{0x1D, 0x49, 0xF0, 0x19}, 0},
		{EndPrint, []byte{0x0A, 0x0A, 0x0A, 0x0A}, 0},
		{RasterPayload, []byte{0x1D, 0x76, 0x30, 0x00}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.command.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.command))
			assert.Equal(t, tt.responseLength, tt.command.ResponseLength())
			assert.Equal(t, tt.responseLength > 0, tt.command.IsQuery())
		})
	}
}

func TestEncodeReturnsFreshSlices(t *testing.T) {
	b := Encode(Initialize)
	b[0] = 0
	assert.Equal(t, []byte{0x1B, 0x40}, Encode(Initialize))

	r := Encode(RasterPayload)
	r[0] = 0
	assert.Equal(t, byte(0x1D), raster.Opcode[0])
}

func TestEncodeRaster(t *testing.T) {
	p := &raster.Payload{WidthBytes: 2, Height: 1, Data: []byte{0xAB, 0xCD}}
	assert.Equal(t,
		[]byte{0x1D, 0x76, 0x30, 0x00, 0x02, 0x00, 0x01, 0x00, 0xAB, 0xCD},
		EncodeRaster(p))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "QueryStatus", QueryStatus.String())
	assert.Equal(t, "Command(42)", Command(42).String())
	assert.Nil(t, Encode(Command(42)))
}

func TestCommandBytesMatchesEncode(t *testing.T) {
	for c := Initialize; c <= RasterPayload; c++ {
		assert.Equal(t, Encode(c), c.Bytes(), c.String())
	}
}
