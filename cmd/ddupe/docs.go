package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Generate man pages or markdown for ddupe",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")       //nolint:errcheck // flag name is hardcoded
			format, _ := cmd.Flags().GetString("format") //nolint:errcheck // flag name is hardcoded
			return genDocs(cmd.Root(), dir, format)
		},
	}
	cmd.Flags().String("dir", "docs", "output directory")
	cmd.Flags().String("format", "man", "output format (man or markdown)")
	return cmd
}

func genDocs(root *cobra.Command, dir, format string) error {
	if format != "man" && format != "markdown" {
		return fmt.Errorf("unknown format %q (use man or markdown)", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	root.DisableAutoGenTag = true
	if format == "markdown" {
		return doc.GenMarkdownTree(root, dir)
	}
	return doc.GenManTree(root, &doc.GenManHeader{
		Title:   "DDUPE",
		Section: "1",
		Source:  "ddupe " + version,
	}, dir)
}
