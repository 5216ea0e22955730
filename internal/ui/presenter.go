package ui

import (
	"io"

	"github.com/bamsammich/ddupe/internal/stats"
)

// Presenter consumes engine events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final one-line statistics summary.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	ErrWriter  io.Writer
	Stats      stats.ReadTicker
	Root       string // stripped from displayed paths when there is one root
	Width      int    // terminal columns, 0 for 80
	IsTTY      bool
	Quiet      bool
	Verbose    bool
	NoProgress bool
}

// NewPresenter picks the presenter for the output: quiet when asked,
// line-oriented when stderr is not a terminal, otherwise the HUD.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	if !cfg.IsTTY || cfg.NoProgress {
		return &plainPresenter{
			w:       cfg.ErrWriter,
			stats:   cfg.Stats,
			root:    cfg.Root,
			verbose: cfg.Verbose,
		}
	}
	width := cfg.Width
	if width <= 0 {
		width = 80
	}
	return &hudPresenter{
		w:       cfg.ErrWriter, // HUD renders to stderr (the TTY)
		stats:   cfg.Stats,
		root:    cfg.Root,
		width:   width,
		verbose: cfg.Verbose,
	}
}
