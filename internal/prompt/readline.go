package prompt

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// ErrInterrupted is returned when the user presses Ctrl+C at a prompt.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of input after showing a prompt. io.EOF
// means the input is closed.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// Terminal is a LineReader backed by readline, so answers can be edited
// in place. The readline instance is opened on the first prompt, leaving
// stdin alone while the scan runs.
type Terminal struct {
	out io.Writer
	rl  *readline.Instance
}

// NewTerminal returns a Terminal writing prompts to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) open() error {
	if t.rl != nil {
		return nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Stdout:          t.out,
		Stderr:          t.out,
		HistoryLimit:    -1,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	t.rl = rl
	return nil
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	if err := t.open(); err != nil {
		return "", err
	}
	t.rl.SetPrompt(prompt)
	line, err := t.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (t *Terminal) Close() error {
	if t.rl == nil {
		return nil
	}
	return t.rl.Close()
}
