package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/collectorscorner/corner/internal/config"
	"github.com/collectorscorner/corner/internal/logging"
	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/internal/tui"
	"github.com/collectorscorner/corner/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("corner " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		}
	}

	cfg, rest, err := config.Load(args)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck
	log := logging.NewFormat(logFile, cfg.LogFormat, cfg.LogLevel)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	api := client.New(cfg.APIURL, store,
		client.WithImageURL(cfg.ImageURL),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log.With("component", "client")),
	)
	log.Debug("starting", "version", version, "api_url", cfg.APIURL, "ephemeral", cfg.Ephemeral)

	c := &cli{
		cfg:      cfg,
		api:      api,
		sessions: store,
		log:      log,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		terminal: term.IsTerminal(int(os.Stdin.Fd())),
	}
	return c.dispatch(ctx, rest)
}

// openStore opens the session store the config asks for.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Ephemeral {
		return session.NewMemoryStore(), func() {}, nil
	}
	s, err := session.OpenSQLite(ctx, cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		s.Close() //nolint:errcheck
	}, nil
}

// runTUI starts the interactive browser.
func (c *cli) runTUI() error {
	app := tui.NewApp(c.api, tui.Options{
		Sessions:     c.sessions,
		SuccessDelay: c.cfg.SuccessDelay,
		APIURL:       c.cfg.APIURL,
		ImageURL:     c.cfg.ImageURL,
		Logger:       c.log,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// Swapped in tests.
var readPassword = term.ReadPassword

// errInvalidInput is returned when a command's input fails validation.
var errInvalidInput = errors.New("invalid input")

type cli struct {
	cfg      *config.Config
	api      tui.API
	sessions session.Store
	log      logging.Logger
	in       *bufio.Reader
	out      io.Writer
	terminal bool // stdin is a TTY; secrets are read without echo
}
