package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ddupe/internal/config"
)

// starterConfig is what init-config writes: the built-in defaults,
// spelled out so they are easy to edit.
func starterConfig() config.Config {
	workers := 0
	prefix := "4K"
	skipHidden := false
	return config.Config{Defaults: config.DefaultsConfig{
		Workers:     &workers,
		PrefixBytes: &prefix,
		SkipHidden:  &skipHidden,
		Exclude:     []string{".git/", "node_modules/"},
	}}
}

func newInitConfigCmd(stdout io.Writer) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if path == "" {
				path = config.Path()
			}
			if err := config.Save(path, starterConfig()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(stdout, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "config file to create (default: $XDG_CONFIG_HOME/ddupe/config.toml)")
	return cmd
}
