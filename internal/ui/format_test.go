package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0 B/s"},
		{-1, "0 B/s"},
		{512, "512 B/s"},
		{1024, "1.0 KiB/s"},
		{1.5 * 1024 * 1024, "1.5 MiB/s"},
		{2.5 * 1024 * 1024 * 1024, "2.5 GiB/s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRate(tt.input))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{250 * time.Millisecond, "250ms"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{3661 * time.Second, "1h 01m 01s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.input))
		})
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "--"},
		{-1 * time.Second, "--"},
		{200 * time.Millisecond, "1s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatETA(tt.input))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100000, "100,000"},
		{1000000, "1,000,000"},
		{14302, "14,302"},
		{-1000, "-1,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.input))
		})
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 file", Plural(1, "file"))
	assert.Equal(t, "0 groups", Plural(0, "group"))
	assert.Equal(t, "1,200 files", Plural(1200, "file"))
}

func TestProgressBar(t *testing.T) {
	SetColor(false)
	t.Cleanup(func() { SetColor(true) })

	assert.Equal(t, "▪▪▪▪▪□□□□□", ProgressBar(0.5, 10))
	assert.Equal(t, "□□□□□□□□□□", ProgressBar(0, 10))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.0, 10))

	// Edge cases.
	assert.Equal(t, "", ProgressBar(0.5, 0))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.5, 10)) // clamp
	assert.Equal(t, "□□□□", ProgressBar(-2, 4))
}

func TestTruncPath(t *testing.T) {
	assert.Equal(t, "short", TruncPath("short", 10))
	assert.Equal(t, "...ef/file.txt", TruncPath("/abc/def/file.txt", 14))
	assert.Equal(t, "txt", TruncPath("/abc/file.txt", 3))
}
