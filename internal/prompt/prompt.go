// Package prompt asks the user the questions the resolution engine needs
// answered: one yes/no before a batch deletion, or a keeper per group.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bamsammich/ddupe/internal/engine"
	"github.com/bamsammich/ddupe/internal/ui"
)

// Prompter implements engine.Confirmer and engine.Chooser on top of a
// LineReader.
type Prompter struct {
	in  LineReader
	out io.Writer
}

// New returns a Prompter reading answers from in and writing listings to out.
func New(in LineReader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

const confirmQuestion = "Delete the [DUPE] files and keep the [KEEP] ones? [y/N]: "

// Confirm shows every planned group and asks once. Only y or yes
// confirms; closed input declines.
func (p *Prompter) Confirm(ctx context.Context, preview engine.Preview) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprint(p.out, ui.PreviewListing(preview))

	line, err := p.in.ReadLine(confirmQuestion)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Choose shows one group and reads the number of the copy to keep,
// asking again until the answer parses.
func (p *Prompter) Choose(ctx context.Context, g engine.DuplicateGroup, pos, total int) (engine.Choice, error) {
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, ui.GroupListing(g, pos, total))

	question := fmt.Sprintf("Keep which copy? [1-%d, Enter=%d, s=skip, q=quit]: ", len(g.Files), g.Keeper+1)
	for {
		if err := ctx.Err(); err != nil {
			return engine.Choice{}, err
		}
		line, err := p.in.ReadLine(question)
		if err != nil {
			return engine.Choice{}, err
		}
		choice, ok := parseChoice(line, len(g.Files), g.Keeper)
		if ok {
			return choice, nil
		}
		fmt.Fprintf(p.out, "%q is not a choice. Enter a number from 1 to %d, s or q.\n", strings.TrimSpace(line), len(g.Files))
	}
}

// parseChoice maps one answer onto a choice. Members are numbered from 1;
// an empty answer keeps the current keeper.
func parseChoice(line string, n, keeper int) (engine.Choice, bool) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "":
		return engine.Keep(keeper), true
	case "s", "skip", "a", "all":
		return engine.Skip(), true
	case "q", "quit", "abort":
		return engine.Abort(), true
	}
	i, err := strconv.Atoi(answer)
	if err != nil || i < 1 || i > n {
		return engine.Choice{}, false
	}
	return engine.Keep(i - 1), true
}

// AssumeYes confirms every batch without asking (--yes).
type AssumeYes struct{}

func (AssumeYes) Confirm(ctx context.Context, _ engine.Preview) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}
