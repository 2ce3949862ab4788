package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"tomgalvin.uk/thermalprint/internal/bitmap"
	"tomgalvin.uk/thermalprint/internal/layout"
	"tomgalvin.uk/thermalprint/internal/model"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/server"
)

const shutdownTimeout = 5 * time.Second

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if err := a.connect(); err != nil {
		return err
	}
	report, err := a.runner.Report()
	if err != nil {
		return fmt.Errorf("Couldn't query printer status:\n%w", err)
	}
	return a.writeJSON(model.FromReport(report))
}

func runInfo(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if err := a.connect(); err != nil {
		return err
	}
	info, err := a.runner.Info()
	if err != nil {
		return fmt.Errorf("Couldn't query printer info:\n%w", err)
	}
	a.printf("Serial Number: %s\n", orUnknown(info.SerialNumber))
	a.printf("Product Info: %s\n", orUnknown(info.ProductInfo))
	return nil
}

func orUnknown(s *string) string {
	if s == nil {
		return printer.Unknown
	}
	return *s
}

// Text comes from stdin whenever stdin is piped, even if arguments were
// given; otherwise from the arguments.
func runText(a *app, args []string) error {
	var text string
	if !a.stdinIsTerminal && a.stdin != nil {
		input, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("Couldn't read stdin:\n%w", err)
		}
		text = string(input)
	} else {
		text = joinArgs(args)
	}

	if strings.TrimSpace(text) == "" {
		a.printf("No input received.\n")
		return nil
	}

	face := layout.LoadFace(a.device.FontPath, a.device.FontSize)
	canvas := layout.Render(text, face, a.device.Width)
	if err := a.print(canvas); err != nil {
		return err
	}
	a.printf("Text sent to printer.\n")
	return nil
}

func runImage(a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("Failed to open '%s'. Please ensure the image file exists:\n%w", args[0], err)
	}
	if err := a.print(bitmap.FromImage(img)); err != nil {
		return err
	}
	a.printf("Image sent to printer.\n")
	return nil
}

func runQR(a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	canvas, err := layout.QRCode(joinArgs(args), a.device.Width)
	if err != nil {
		return err
	}
	if err := a.print(canvas); err != nil {
		return err
	}
	a.printf("QR code sent to printer.\n")
	return nil
}

func (a *app) print(c *bitmap.Canvas) error {
	if err := a.connect(); err != nil {
		return err
	}
	if _, err := a.runner.Print(c); err != nil {
		return fmt.Errorf("Couldn't print:\n%w", err)
	}
	return nil
}

func runServe(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if err := a.connect(); err != nil {
		return err
	}
	listen, _ := a.flags.GetString("listen")

	s := server.New(a.logger.With("src", "server"), a.session, a.journal, a.device)
	srv := &http.Server{Addr: listen, Handler: s.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "address", listen)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("Error starting server:\n%w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("Couldn't shut down server:\n%w", err)
	}
	return nil
}

func runHistory(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if a.device.JournalPath == "" {
		return errors.New("No journal configured, set --journal or journal_path")
	}
	if err := a.openJournal(); err != nil {
		return err
	}
	limit, _ := a.flags.GetInt("limit")
	entries, err := a.journal.List(limit)
	if err != nil {
		return err
	}
	return a.writeJSON(model.FromEntries(entries))
}
