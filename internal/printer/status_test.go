package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func padded(s string, length int) []byte {
	b := make([]byte, length)
	copy(b, s)
	return b
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want PrinterStatus
	}{
		{
			name: "complete reply",
			raw:  padded("HV=1.0,SV=2.3.1,VOLT=4200mv,DPI=203", 38),
			want: PrinterStatus{HardwareVersion: "1.0", SoftwareVersion: "2.3.1", Voltage: "4.2V", DPI: "203"},
		},
		{
			name: "empty reply",
			raw:  nil,
			want: PrinterStatus{HardwareVersion: Unknown, SoftwareVersion: Unknown, Voltage: Unknown, DPI: Unknown},
		},
		{
			name: "only hardware version",
			raw:  []byte("HV=1.0"),
			want: PrinterStatus{HardwareVersion: "1.0", SoftwareVersion: Unknown, Voltage: Unknown, DPI: Unknown},
		},
		{
			name: "fields in another order with spaces",
			raw:  []byte("DPI= 203 , HV= 1.0 ,SV=2"),
			want: PrinterStatus{HardwareVersion: "1.0", SoftwareVersion: "2", Voltage: Unknown, DPI: "203"},
		},
		{
			name: "marker without value",
			raw:  []byte("HV=,SV=2.0"),
			want: PrinterStatus{HardwareVersion: Unknown, SoftwareVersion: "2.0", Voltage: Unknown, DPI: Unknown},
		},
		{
			name: "first occurrence wins",
			raw:  []byte("HV=1.0,HV=2.0"),
			want: PrinterStatus{HardwareVersion: "1.0", SoftwareVersion: Unknown, Voltage: Unknown, DPI: Unknown},
		},
		{
			name: "non-ascii bytes are dropped",
			raw:  []byte("HV=\xff1.\xc3\xa90,DPI=203"),
			want: PrinterStatus{HardwareVersion: "1.0", SoftwareVersion: Unknown, Voltage: Unknown, DPI: "203"},
		},
		{
			name: "garbage",
			raw:  bytes.Repeat([]byte{0xfe}, 38),
			want: PrinterStatus{HardwareVersion: Unknown, SoftwareVersion: Unknown, Voltage: Unknown, DPI: Unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestParseStatusVoltage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"VOLT=4200mv", "4.2V"},
		{"VOLT=4200MV", "4.2V"},
		{"VOLT=4200mV,DPI=203", "4.2V"},
		{"VOLT=4200", "4.2V"},
		{"VOLT= 3700 mv ", "3.7V"},
		{"VOLT=4000mv", "4.0V"},
		{"VOLT=0", "0.0V"},
		{"VOLT=12345mv", "12.345V"},
		{"VOLT=abc", Unknown},
		{"VOLT=mv", Unknown},
		{"VOLT=-12mv", Unknown},
		{"VOLT=+12mv", Unknown},
		{"VOLT=4.2", Unknown},
		{"VOLT=", Unknown},
		{"VOLT=99999999999999999999999", Unknown},
		{"HV=1.0", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus([]byte(tt.raw)).Voltage)
		})
	}
}

func TestDecodeText(t *testing.T) {
	serial := DecodeText(DecodeReply(QuerySerial, padded("SN12345678", 21)))
	require.NotNil(t, serial)
	assert.Equal(t, "SN12345678", *serial)

	product := DecodeText(DecodeReply(QueryProductInfo, padded(" M02 Pro ", 16)))
	require.NotNil(t, product)
	assert.Equal(t, "M02 Pro", *product)

	assert.Nil(t, DecodeText(DecodeReply(QuerySerial, padded("SN12", 10))))
	assert.Nil(t, DecodeText(DecodeReply(QuerySerial, padded("SN12", 22))))
	assert.Nil(t, DecodeText(DecodeReply(QueryProductInfo, nil)))
}

func TestNewReport(t *testing.T) {
	report := NewReport(
		DecodeReply(QueryStatus, padded("HV=1.0,SV=2.3.1,VOLT=4200mv,DPI=203", 38)),
		DecodeReply(QuerySerial, padded("SN12345678", 10)),
		DecodeReply(QueryProductInfo, padded("M02", 16)),
	)

	assert.Equal(t, "1.0", report.Printer.HardwareVersion)
	assert.Nil(t, report.SerialNumber)
	require.NotNil(t, report.ProductInfo)
	assert.Equal(t, "M02", *report.ProductInfo)
}

func TestReplyErr(t *testing.T) {
	assert.NoError(t, DecodeReply(QueryStatus, make([]byte, 38)).Err())

	err := DecodeReply(QuerySerial, make([]byte, 10)).Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedLength)
	var lengthErr *LengthError
	require.ErrorAs(t, err, &lengthErr)
	assert.Equal(t, 10, lengthErr.Got)
	assert.Equal(t, 21, lengthErr.Want)
}

func TestDecodeReplyCopies(t *testing.T) {
	raw := padded("SN", 21)
	reply := DecodeReply(QuerySerial, raw)
	raw[0] = 'X'
	assert.Equal(t, byte('S'), reply.Data[0])
}
