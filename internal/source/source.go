// Package source reads raw records from batch inputs. Readers are registered
// by format name; resolving an unknown format is a startup error, not a
// per-record one.
package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/crimson-sun/warden/internal/model"
)

// Reader decodes a batch input into raw records. Readers are fail-soft: a
// malformed line becomes a record carrying the line as payload rather than
// being dropped.
type Reader interface {
	Read(ctx context.Context, r io.Reader) ([]model.RawRecord, error)
}

// Constructor creates a new Reader instance.
type Constructor func() Reader

var registry = map[string]Constructor{}

// Register adds a reader constructor under the given format name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the reader constructor for the given format name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown input format: %s", name)
	}
	return ctor, nil
}

// Formats returns the names of all registered readers.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ForPath guesses the format from a file extension. Defaults to jsonl.
func ForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	default:
		return "jsonl"
	}
}
