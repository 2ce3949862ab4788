// Package cmd is the thermalprint command line: it connects to the printer
// described by the configuration and runs one subcommand against it.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"tomgalvin.uk/thermalprint/internal/config"
	"tomgalvin.uk/thermalprint/internal/job"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/transport"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type command struct {
	usage   string
	summary string
	run     func(a *app, args []string) error
}

var commands = map[string]command{
	"status":  {"status", "print the printer's status report as JSON", runStatus},
	"info":    {"info", "print the serial number and product info", runInfo},
	"text":    {"text [TEXT...]", "print text, read from stdin when it isn't a terminal", runText},
	"image":   {"image PATH", "print an image file", runImage},
	"qr":      {"qr CONTENT", "print a QR code", runQR},
	"serve":   {"serve [--listen ADDR]", "serve the printer over HTTP", runServe},
	"history": {"history [--limit N]", "list recorded prints and queries", runHistory},
}

type app struct {
	logger *slog.Logger
	flags  *pflag.FlagSet
	device config.Device

	stdin           io.Reader
	stdinIsTerminal bool
	stdout          io.Writer

	session *printer.Session
	journal *journal.Journal
	runner  *job.Runner
}

// Runs the command line and returns the process exit code.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("thermalprint", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	verbose := flags.BoolP("verbose", "v", false, "log debug output")
	flags.String("listen", ":8080", "address for serve to listen on")
	flags.Int("limit", 20, "number of entries history lists")
	flags.Usage = func() { usage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flags.NArg() == 0 {
		flags.Usage()
		return exitUsage
	}
	cmd, ok := commands[flags.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", flags.Arg(0))
		flags.Usage()
		return exitUsage
	}

	device, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	a := &app{
		logger:          logger,
		flags:           flags,
		device:          device,
		stdin:           stdin,
		stdinIsTerminal: isTerminal(stdin),
		stdout:          stdout,
	}
	defer a.close()

	if err := cmd.run(a, flags.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: thermalprint %s\n", cmd.usage)
			return exitUsage
		}
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return exitOK
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: thermalprint [flags] COMMAND [ARGS]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-24s %s\n", commands[name].usage, commands[name].summary)
	}
	fmt.Fprintln(w, "\nFlags:")
	fmt.Fprint(w, flags.FlagUsages())
}

func (a *app) openJournal() error {
	if a.journal != nil || a.device.JournalPath == "" {
		return nil
	}
	j, err := journal.Open(a.device.JournalPath)
	if err != nil {
		return err
	}
	a.journal = j
	return nil
}

// Opens the transport and wraps it in a session.
func (a *app) connect() error {
	if err := a.openJournal(); err != nil {
		return err
	}

	a.logger.Info("Connecting to printer...", "transport", a.device.Transport)
	t, err := transport.Open(a.device)
	if err != nil {
		return err
	}
	a.logger.Info("Connected to printer.")

	a.session = printer.NewSession(t,
		printer.WithPacer(printer.FixedDelay(a.device.SettleDelay)),
		printer.WithLogger(a.logger),
		printer.WithWidth(a.device.Width),
	)
	a.runner = job.NewRunner(a.logger, a.session, a.journal)
	return nil
}

func (a *app) close() {
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("Couldn't close connection", "error", err)
		} else {
			a.logger.Info("Connection closed.")
		}
	}
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("Couldn't close journal", "error", err)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
