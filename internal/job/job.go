// Package job runs prints and queries against a session one at a time and
// records each of them in the journal.
package job

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tomgalvin.uk/thermalprint/internal/bitmap"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/model"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/raster"
)

// Returned by Print for a canvas with nothing on it.
var ErrNothingToPrint = errors.New("nothing to print")

type Runner struct {
	logger  *slog.Logger
	session *printer.Session
	journal *journal.Journal
	mu      sync.Mutex
}

// j may be nil to skip journaling.
func NewRunner(logger *slog.Logger, session *printer.Session, j *journal.Journal) *Runner {
	return &Runner{
		logger:  logger,
		session: session,
		journal: j,
	}
}

func (r *Runner) State() printer.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.State()
}

// Initialises the printer the first time it's used.
func (r *Runner) ready() error {
	if r.session.State() == printer.Connected {
		return r.session.Initialize()
	}
	return nil
}

// Normalises and prints c. Returns the payload that was sent.
func (r *Runner) Print(c *bitmap.Canvas) (*raster.Payload, error) {
	if c.IsEmpty() {
		return nil, ErrNothingToPrint
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := journal.Entry{Kind: journal.KindPrint, StartedAt: time.Now()}
	payload, err := raster.Normalize(c, r.session.Width())
	if err == nil {
		entry.Bytes = len(payload.Bytes())
		entry.WidthBytes = payload.WidthBytes
		entry.Height = payload.Height
		if err = r.ready(); err == nil {
			err = r.session.Print(payload)
		}
	}

	r.record(&entry, err)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Printed", "widthBytes", payload.WidthBytes, "height", payload.Height)
	return payload, nil
}

func (r *Runner) Status() (printer.PrinterStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := journal.Entry{Kind: journal.KindStatus, StartedAt: time.Now()}
	err := r.ready()
	var status printer.PrinterStatus
	if err == nil {
		status, err = r.session.Status()
	}
	if err == nil {
		entry.Report = encode(r.logger, model.FromStatus(status))
	}
	r.record(&entry, err)
	return status, err
}

func (r *Runner) Info() (model.InfoResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := journal.Entry{Kind: journal.KindInfo, StartedAt: time.Now()}
	err := r.ready()
	var info model.InfoResponse
	if err == nil {
		var serial, product printer.Reply
		serial, product, err = r.session.Info()
		info = model.FromInfo(serial, product)
	}
	if err == nil {
		entry.Report = encode(r.logger, info)
	}
	r.record(&entry, err)
	return info, err
}

// Status, serial number and product info together.
func (r *Runner) Report() (printer.StatusReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := journal.Entry{Kind: journal.KindStatus, StartedAt: time.Now()}
	err := r.ready()
	var report printer.StatusReport
	if err == nil {
		report, err = r.session.Report()
	}
	if err == nil {
		entry.Report = encode(r.logger, model.FromReport(report))
	}
	r.record(&entry, err)
	return report, err
}

func (r *Runner) History(limit int) ([]journal.Entry, error) {
	return r.journal.List(limit)
}

func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Close()
}

// Journal failures are logged, never returned; the print has already
// happened.
func (r *Runner) record(e *journal.Entry, err error) {
	if err != nil {
		e.Error = err.Error()
	}
	if jerr := r.journal.Record(e); jerr != nil {
		r.logger.Warn("Couldn't record in journal", "kind", e.Kind, "error", jerr)
	}
}

func encode(logger *slog.Logger, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Couldn't encode report for journal", "error", err)
		return nil
	}
	return data
}
