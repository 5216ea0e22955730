// Package report writes a finished run to disk as JSON or YAML,
// optionally zstd-compressed.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/bamsammich/ddupe/internal/engine"
)

// Format is a report encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ErrUnknownFormat is returned for a report path whose extension names no
// supported encoding.
var ErrUnknownFormat = errors.New("unknown report format")

// FormatFor picks the encoding from a file name: .json, .yaml or .yml,
// each optionally followed by .zst.
func FormatFor(path string) (format Format, compressed bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	name, compressed = strings.CutSuffix(name, ".zst")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return 0, false, fmt.Errorf("%w: %s (use .json, .yaml or .yml, optionally .zst)", ErrUnknownFormat, path)
	}
}

// Write encodes rep to w.
func Write(w io.Writer, rep *engine.RunReport, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	}
}

// decode reads a report written by Write.
func decode(r io.Reader, format Format) (*engine.RunReport, error) {
	var rep engine.RunReport
	var err error
	if format == FormatYAML {
		err = yaml.NewDecoder(r).Decode(&rep)
	} else {
		err = json.NewDecoder(r).Decode(&rep)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s report: %w", format, err)
	}
	return &rep, nil
}

// SaveToFile writes rep to path, choosing the encoding from the extension.
// The file is written next to its destination and renamed into place.
func SaveToFile(path string, rep *engine.RunReport) error {
	format, compressed, err := FormatFor(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ddupe-report-*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := encodeTo(tmp, rep, format, compressed); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadFile reads a report saved by SaveToFile.
func LoadFile(path string) (*engine.RunReport, error) {
	format, compressed, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd report: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return decode(r, format)
}

func encodeTo(w io.Writer, rep *engine.RunReport, format Format, compressed bool) error {
	if !compressed {
		return Write(w, rep, format)
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("open zstd writer: %w", err)
	}
	if err := Write(enc, rep, format); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush zstd report: %w", err)
	}
	return nil
}
