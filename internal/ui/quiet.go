package ui

import "github.com/bamsammich/ddupe/internal/stats"

// quietPresenter drains events and prints nothing.
type quietPresenter struct {
	stats stats.Reader
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
