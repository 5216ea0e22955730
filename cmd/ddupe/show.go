package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ddupe/internal/report"
	"github.com/bamsammich/ddupe/internal/ui"
)

func newShowCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show REPORT",
		Short: "Print a report saved with --report",
		Long: `Print a report saved with --report the way the run that wrote it did:
every group with the action taken on each file, the closing summary, and
any failures grouped by reason.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rep, err := report.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}

			outFile, _ := stdout.(*os.File)
			ui.SetColor(ui.ColorWanted(outFile != nil && ui.IsTTY(outFile)))

			fmt.Fprint(stdout, ui.ReportListing(rep))
			fmt.Fprintln(stdout, ui.Summary(rep))
			fmt.Fprint(stderr, ui.FailureSummary(rep))
			return nil
		},
	}
}
