// Package csvout writes verdicts as CSV rows, matching the tabular export
// schema: time, ip, method, url, body, attack, confidence, severity, level.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/crimson-sun/warden/internal/model"
)

var header = []string{"time", "ip", "method", "url", "body", "attack", "confidence", "severity", "level"}

// Output writes one CSV row per verdict, emitting the header first.
type Output struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	wrote  bool
}

// New creates a CSV output writing to the given path.
func New(path string) (*Output, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv output: create %s: %w", path, err)
	}
	return &Output{w: csv.NewWriter(f), closer: f}, nil
}

// NewTo writes to an arbitrary writer; used by tests.
func NewTo(w io.Writer) *Output {
	return &Output{w: csv.NewWriter(w)}
}

func (o *Output) Write(_ context.Context, v model.Verdict) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.wrote {
		if err := o.w.Write(header); err != nil {
			return fmt.Errorf("csv output: header: %w", err)
		}
		o.wrote = true
	}

	ts := ""
	if !v.Timestamp.IsZero() {
		ts = v.Timestamp.UTC().Format(time.RFC3339)
	}
	row := []string{
		ts, v.SourceIP, v.Method, v.URL, v.Body,
		string(v.Label),
		strconv.FormatFloat(v.Confidence, 'f', 4, 64),
		strconv.Itoa(v.SeverityScore),
		string(v.SeverityLevel),
	}
	if err := o.w.Write(row); err != nil {
		return fmt.Errorf("csv output: row: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.w.Flush()
	if err := o.w.Error(); err != nil {
		return fmt.Errorf("csv output: flush: %w", err)
	}
	if o.closer != nil {
		return o.closer.Close()
	}
	return nil
}
