package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bamsammich/ddupe/internal/config"
	"github.com/bamsammich/ddupe/internal/engine"
	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/prompt"
	"github.com/bamsammich/ddupe/internal/report"
	"github.com/bamsammich/ddupe/internal/stats"
	"github.com/bamsammich/ddupe/internal/ui"
)

// find runs one duplicate search over roots and renders the outcome.
func find(ctx context.Context, roots []string, opts *options, cfg config.Config, stdout, stderr io.Writer) error {
	chain, err := buildFilter(opts)
	if err != nil {
		return err
	}
	prefix, ioLimit, err := engineSizes(opts)
	if err != nil {
		return err
	}
	if opts.reportFile != "" {
		if _, _, err := report.FormatFor(opts.reportFile); err != nil {
			return err
		}
	}

	// Configure logging.
	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if opts.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	var logHandler slog.Handler = textHandler
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	errFile, _ := stderr.(*os.File)
	isTTY := errFile != nil && ui.IsTTY(errFile)
	ui.SetColor(ui.ColorWanted(isTTY))
	ui.ApplyTheme(cfg.Theme)

	mode := selectMode(opts)
	if mode == engine.ModeDryRun {
		slog.Info("dry run mode")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	// When --log is set, tee events through a logging goroutine that
	// writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		presenterEvents = teeEvents(events)
	}

	var root string
	if len(roots) == 1 {
		root = roots[0]
	}
	width := 80
	if isTTY {
		width = ui.TermWidth(errFile)
	}
	presenter := ui.NewPresenter(ui.Config{
		ErrWriter:  stderr,
		Stats:      collector,
		Root:       root,
		Width:      width,
		IsTTY:      isTTY,
		Quiet:      opts.quiet,
		Verbose:    opts.verbose,
		NoProgress: opts.noProgress,
	})

	engineCfg := engine.Config{
		Roots:       roots,
		Mode:        mode,
		Events:      events,
		Stats:       collector,
		Workers:     opts.workers,
		ScanWorkers: opts.scanWorkers,
		PrefixBytes: prefix,
		IOLimit:     ioLimit,
	}
	if chain != nil {
		engineCfg.Filter = chain
	}

	term := prompt.NewTerminal(stdout)
	defer term.Close()
	asker := prompt.New(term, stdout)
	switch {
	case mode == engine.ModeInteractive:
		engineCfg.Chooser = asker
	case opts.yes:
		engineCfg.Confirmer = prompt.AssumeYes{}
	default:
		engineCfg.Confirmer = asker
	}

	slog.Debug("starting scan",
		"roots", roots,
		"mode", mode.String(),
		"workers", opts.workers,
		"prefix_bytes", prefix,
		"io_limit", ioLimit,
	)

	// Presenter in the background, engine in the foreground.
	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()
	result := engine.Run(ctx, engineCfg)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
	}

	if result.Err != nil {
		slog.Error("run failed", "error", result.Err)
		return exitFor(result)
	}

	render(result.Report, mode, opts, stdout, stderr)
	if !opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(stderr, summary)
		}
	}

	if opts.reportFile != "" {
		if err := report.SaveToFile(opts.reportFile, result.Report); err != nil {
			slog.Error("write report failed", "path", opts.reportFile, "error", err)
			return &exitError{code: 1}
		}
		slog.Debug("report written", "path", opts.reportFile)
	}
	return exitFor(result)
}

// render prints the listing and closing summary of a finished run.
// Batch confirmation already showed its listing before asking.
func render(rep *engine.RunReport, mode engine.Mode, opts *options, stdout, stderr io.Writer) {
	if opts.quiet {
		fmt.Fprint(stderr, ui.FailureSummary(rep))
		return
	}
	if mode == engine.ModeDryRun || opts.yes {
		fmt.Fprint(stdout, ui.ReportListing(rep))
	}
	fmt.Fprintln(stdout, ui.Summary(rep))
	fmt.Fprint(stderr, ui.FailureSummary(rep))
}

// teeEvents logs every event as a structured record and forwards it.
func teeEvents(events <-chan event.Event) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int64("size", ev.Size),
			}
			if ev.Total > 0 {
				attrs = append(attrs, slog.Int64("total", ev.Total))
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			slog.LogAttrs(context.Background(), slog.LevelDebug, "ddupe.event", attrs...)
			teed <- ev
		}
		close(teed)
	}()
	return teed
}
