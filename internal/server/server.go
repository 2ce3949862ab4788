// Package server exposes the printer over HTTP. All requests share the one
// session, so prints and queries are serialised.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	_ "golang.org/x/image/webp"

	"tomgalvin.uk/thermalprint/internal/bitmap"
	"tomgalvin.uk/thermalprint/internal/config"
	"tomgalvin.uk/thermalprint/internal/job"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/layout"
	"tomgalvin.uk/thermalprint/internal/model"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/raster"
)

const (
	maxBodySize         = 16 << 20
	defaultHistoryLimit = 50
)

type Server struct {
	logger *slog.Logger
	runner *job.Runner
	face   font.Face
	width  int
}

func New(logger *slog.Logger, session *printer.Session, j *journal.Journal, device config.Device) *Server {
	return &Server{
		logger: logger,
		runner: job.NewRunner(logger, session, j),
		face:   layout.LoadFace(device.FontPath, device.FontSize),
		width:  session.Width(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /print", s.handlePrint)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /history", s.handleHistory)
	return mux
}

func (s *Server) Close() error {
	return s.runner.Close()
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType, "Invalid content type")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var canvas *bitmap.Canvas
	switch {
	case mediaType == "text/plain":
		text, err := io.ReadAll(body)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		canvas = layout.Render(string(text), s.face, s.width)
	case strings.HasPrefix(mediaType, "image/"):
		img, err := imaging.Decode(body, imaging.AutoOrientation(true))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Couldn't decode image: %v", err))
			return
		}
		canvas = bitmap.FromImage(img)
	default:
		s.writeError(w, http.StatusUnsupportedMediaType, "Expecting text/plain or an image")
		return
	}

	payload, err := s.runner.Print(canvas)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model.FromPayload(payload))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Report()
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model.FromReport(report))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.runner.Info()
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	entries, err := s.runner.History(limit)
	if err != nil {
		s.logger.Error("Couldn't read journal", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Couldn't read history")
		return
	}
	s.writeJSON(w, http.StatusOK, model.FromEntries(entries))
}

// Maps errors from the runner to a response. Anything wrong with the
// printer connection is a 503.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, job.ErrNothingToPrint):
		s.writeError(w, http.StatusBadRequest, "No input received")
	case errors.Is(err, raster.ErrOversize):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, printer.ErrTransport),
		errors.Is(err, printer.ErrSessionClosed),
		errors.Is(err, printer.ErrInvalidState):
		s.logger.Error("Printer unavailable", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "printer not connected")
	default:
		s.logger.Error("Request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, model.ErrorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Couldn't write response", "error", err)
	}
}
