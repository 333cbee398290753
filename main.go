// Package main provides the urlpulse CLI entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/lukemcguire/urlpulse/checker"
	"github.com/lukemcguire/urlpulse/config"
	"github.com/lukemcguire/urlpulse/input"
	"github.com/lukemcguire/urlpulse/logging"
	"github.com/lukemcguire/urlpulse/result"
	"github.com/lukemcguire/urlpulse/tui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger = logger.With().Str("batch_id", uuid.NewString()).Logger()
	if cfg.ConfigFile != "" {
		logger.Debug().Str("file", cfg.ConfigFile).Msg("config loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	stdinTTY := isatty.IsTerminal(os.Stdin.Fd())
	stdoutTTY := isatty.IsTerminal(os.Stdout.Fd())

	targets, err := collectTargets(cfg, os.Stdin, os.Stdout, os.Stderr, stdinTTY)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	checkerCfg := cfg.Checker()
	fetcher := checker.NewHTTPFetcher(checkerCfg)

	switch {
	case cfg.Format != config.FormatText:
		pool := checker.New(checkerCfg, fetcher, nil)
		if err := writeReport(ctx, os.Stdout, cfg.Format, pool, targets); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case stdinTTY && stdoutTTY && !cfg.Plain:
		if err := runTUI(ctx, checkerCfg, fetcher, targets); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	default:
		pool := checker.New(checkerCfg, fetcher, nil)
		runPlain(ctx, os.Stdout, pool, targets)
	}
	return 0
}

// collectTargets reads targets per cfg. Prompts and notices go to stderr
// when stdout carries a structured report.
func collectTargets(cfg *config.Config, in io.Reader, stdout, stderr io.Writer, interactive bool) ([]string, error) {
	notices := stdout
	if cfg.Format != config.FormatText {
		notices = stderr
	}
	return input.Collect(input.Source{
		Args:        cfg.URLs,
		In:          in,
		Out:         notices,
		Interactive: interactive,
		Max:         cfg.MaxURLs,
	})
}

// runPlain streams one block per target to w as each is collected.
func runPlain(ctx context.Context, w io.Writer, pool *checker.Pool, targets []string) {
	printer := result.NewPrinter(w)
	printer.Header(len(targets), pool.Size())

	start := time.Now()
	records := make([]result.Record, 0, len(targets))
	pool.Run(ctx, targets, func(index int, o result.Outcome) {
		rec := result.Classify(index+1, o)
		records = append(records, rec)
		printer.Record(rec)
	})
	printer.Footer(result.Summarize(records, time.Since(start)))
}

// writeReport checks every target, then writes all records in format.
func writeReport(ctx context.Context, w io.Writer, format string, pool *checker.Pool, targets []string) error {
	outcomes := pool.RunAll(ctx, targets)
	records := make([]result.Record, len(outcomes))
	for i, o := range outcomes {
		records[i] = result.Classify(i+1, o)
	}
	zerolog.Ctx(ctx).Info().Int("records", len(records)).Str("format", format).Msg("writing report")

	switch format {
	case config.FormatJSON:
		return result.WriteJSON(w, records)
	case config.FormatCSV:
		return result.WriteCSV(w, records)
	case config.FormatYAML:
		return result.WriteYAML(w, records)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// runTUI shows progress in a Bubble Tea program. Keys are read from the
// terminal, so ctrl+c reaches the model instead of the signal handler.
func runTUI(ctx context.Context, cfg checker.Config, fetcher checker.Fetcher, targets []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan checker.Event, len(targets))
	pool := checker.New(cfg, fetcher, progressCh)

	model := tui.NewModel(ctx, cancel, pool, targets, pool.Size(), progressCh)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	records := finalModel.(tui.Model).Records()
	if len(records) != len(targets) {
		return fmt.Errorf("tui exited with %d of %d results", len(records), len(targets))
	}
	zerolog.Ctx(ctx).Info().Int("records", len(records)).Msg("batch complete")
	fmt.Println("Done.")
	return nil
}
