package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/ddupe/internal/config"
	"github.com/bamsammich/ddupe/internal/engine"
	"github.com/bamsammich/ddupe/internal/filter"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

var _ pflag.Value = (*filterFlag)(nil)

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// options holds every root command flag.
type options struct {
	chain       *filter.Chain
	filterFile  string
	minSize     string
	maxSize     string
	prefixBytes string
	ioLimit     string
	reportFile  string
	logFile     string
	workers     int
	scanWorkers int
	dryRun      bool
	interactive bool
	yes         bool
	skipHidden  bool
	verbose     bool
	quiet       bool
	noProgress  bool
	showVersion bool
}

func run() int {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{chain: filter.NewChain()}

	rootCmd := &cobra.Command{
		Use:   "ddupe [flags] <path>...",
		Short: "Find duplicate files and delete all but one copy",
		Long: `ddupe scans one or more directory trees, finds regular files with identical
content and removes every copy but one. Nothing is deleted without a
confirmation unless --yes is given; --dry-run only reports.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "ddupe %s\n", version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(stderr, "warning: failed to load config: %v\n", err)
			}
			if err := applyConfigDefaults(cmd, cfg.Defaults, opts); err != nil {
				return err
			}
			return find(cmd.Context(), args, opts, cfg, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	f := rootCmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report duplicates without deleting anything")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "choose which copy to keep for each group")
	f.BoolVarP(&opts.yes, "yes", "y", false, "delete without asking for confirmation")
	f.IntVarP(&opts.workers, "workers", "n", 0,
		fmt.Sprintf("number of hashing workers (default: %d)", runtime.NumCPU()))
	f.IntVar(&opts.scanWorkers, "scan-workers", 0, "number of directory scanning workers (default: min(NumCPU, 8))")
	f.StringVar(&opts.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	f.StringVar(&opts.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
	f.Var(&filterFlag{chain: opts.chain}, "exclude", "exclude paths matching PATTERN (repeatable)")
	f.Var(&filterFlag{chain: opts.chain, include: true}, "include", "include paths matching PATTERN (repeatable)")
	f.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")
	f.BoolVar(&opts.skipHidden, "skip-hidden", false, "ignore dot-files and dot-directories")
	f.StringVar(&opts.prefixBytes, "prefix-bytes", "4K", "compare the first SIZE bytes before full hashing (0 disables)")
	f.StringVar(&opts.ioLimit, "io-limit", "", "cap hashing reads at SIZE per second (e.g. 50M)")
	f.StringVar(&opts.reportFile, "report", "", "write a report to FILE (.json, .yaml, .yml, optionally .zst)")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable progress display")

	rootCmd.MarkFlagsMutuallyExclusive("dry-run", "interactive")
	rootCmd.MarkFlagsMutuallyExclusive("dry-run", "yes")
	rootCmd.MarkFlagsMutuallyExclusive("interactive", "yes")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newInitConfigCmd(stdout))
	rootCmd.AddCommand(newShowCmd(stdout, stderr))
	return rootCmd
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) error {
	changed := cmd.Flags().Changed
	if !changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !changed("scan-workers") && defaults.ScanWorkers != nil {
		opts.scanWorkers = *defaults.ScanWorkers
	}
	if !changed("min-size") && defaults.MinSize != nil {
		opts.minSize = *defaults.MinSize
	}
	if !changed("max-size") && defaults.MaxSize != nil {
		opts.maxSize = *defaults.MaxSize
	}
	if !changed("prefix-bytes") && defaults.PrefixBytes != nil {
		opts.prefixBytes = *defaults.PrefixBytes
	}
	if !changed("io-limit") && defaults.IOLimit != nil {
		opts.ioLimit = *defaults.IOLimit
	}
	if !changed("skip-hidden") && defaults.SkipHidden != nil {
		opts.skipHidden = *defaults.SkipHidden
	}
	if !changed("report") && defaults.Report != nil {
		opts.reportFile = *defaults.Report
	}
	// Config excludes come after any given on the command line, so CLI
	// rules win on first match.
	for _, glob := range defaults.Exclude {
		if err := opts.chain.AddExclude(glob); err != nil {
			return fmt.Errorf("config exclude %q: %w", glob, err)
		}
	}
	return nil
}

// buildFilter finishes the filter chain from the size and file flags.
// Nil means nothing is filtered.
func buildFilter(opts *options) (*filter.Chain, error) {
	chain := opts.chain
	if opts.filterFile != "" {
		if err := chain.LoadFile(opts.filterFile); err != nil {
			return nil, fmt.Errorf("load filter file: %w", err)
		}
	}
	if opts.minSize != "" {
		n, err := filter.ParseSize(opts.minSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-size: %w", err)
		}
		chain.SetMinSize(n)
	}
	if opts.maxSize != "" {
		n, err := filter.ParseSize(opts.maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		chain.SetMaxSize(n)
	}
	chain.SetSkipHidden(opts.skipHidden)
	if chain.Empty() {
		return nil, nil
	}
	return chain, nil
}

// engineSizes parses --prefix-bytes and --io-limit into engine values.
func engineSizes(opts *options) (prefix, ioLimit int64, err error) {
	if opts.prefixBytes != "" {
		prefix, err = filter.ParseSize(opts.prefixBytes)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --prefix-bytes: %w", err)
		}
		if prefix == 0 {
			prefix = -1
		}
	}
	if opts.ioLimit != "" {
		ioLimit, err = filter.ParseSize(opts.ioLimit)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --io-limit: %w", err)
		}
	}
	return prefix, ioLimit, nil
}

func selectMode(opts *options) engine.Mode {
	switch {
	case opts.dryRun:
		return engine.ModeDryRun
	case opts.interactive:
		return engine.ModeInteractive
	default:
		return engine.ModeBatchConfirm
	}
}

// exitError carries a process exit code without printing an error.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// exitFor maps a finished run onto an exit code: 2 for a fatal error,
// 1 when the report is not clean, nil otherwise.
func exitFor(res engine.Result) error {
	switch {
	case res.Err != nil:
		return &exitError{code: 2}
	case !res.Report.Success():
		return &exitError{code: 1}
	default:
		return nil
	}
}
