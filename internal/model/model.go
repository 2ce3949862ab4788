// Package model holds the JSON shapes the CLI and HTTP server report in.
package model

import (
	"encoding/json"
	"time"

	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/raster"
)

type PrinterStatusResponse struct {
	HardwareVersion string `json:"hardware_version"`
	SoftwareVersion string `json:"software_version"`
	Voltage         string `json:"voltage"`
	DPI             string `json:"dpi"`
}

// Serial number and product info are null when the device's reply couldn't
// be decoded.
type StatusReportResponse struct {
	PrinterStatus PrinterStatusResponse `json:"printer_status"`
	SerialNumber  *string               `json:"serial_number"`
	ProductInfo   *string               `json:"product_info"`
}

type InfoResponse struct {
	SerialNumber *string `json:"serial_number"`
	ProductInfo  *string `json:"product_info"`
}

type PrintResponse struct {
	Bytes      int `json:"bytes"`
	WidthBytes int `json:"width_bytes"`
	Height     int `json:"height"`
}

type HistoryEntryResponse struct {
	Id         string          `json:"id"`
	Kind       string          `json:"kind"`
	StartedAt  time.Time       `json:"started_at"`
	Bytes      int             `json:"bytes"`
	WidthBytes int             `json:"width_bytes"`
	Height     int             `json:"height"`
	Error      string          `json:"error,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromStatus(s printer.PrinterStatus) PrinterStatusResponse {
	return PrinterStatusResponse{
		HardwareVersion: s.HardwareVersion,
		SoftwareVersion: s.SoftwareVersion,
		Voltage:         s.Voltage,
		DPI:             s.DPI,
	}
}

func FromReport(r printer.StatusReport) StatusReportResponse {
	return StatusReportResponse{
		PrinterStatus: FromStatus(r.Printer),
		SerialNumber:  r.SerialNumber,
		ProductInfo:   r.ProductInfo,
	}
}

func FromInfo(serial, product printer.Reply) InfoResponse {
	return InfoResponse{
		SerialNumber: printer.DecodeText(serial),
		ProductInfo:  printer.DecodeText(product),
	}
}

func FromPayload(p *raster.Payload) PrintResponse {
	return PrintResponse{
		Bytes:      len(p.Bytes()),
		WidthBytes: p.WidthBytes,
		Height:     p.Height,
	}
}

func FromEntry(e journal.Entry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Id:         e.Uuid.String(),
		Kind:       string(e.Kind),
		StartedAt:  e.StartedAt.UTC(),
		Bytes:      e.Bytes,
		WidthBytes: e.WidthBytes,
		Height:     e.Height,
		Error:      e.Error,
		Report:     e.Report,
	}
}

func FromEntries(entries []journal.Entry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}
