package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/warden/internal/model"
)

// Output writes verdicts to stdout as NDJSON, optionally pretty-printed.
type Output struct {
	enc *json.Encoder
}

// New creates a stdout Output.
func New(pretty bool) *Output {
	return NewTo(os.Stdout, pretty)
}

// NewTo writes to an arbitrary writer; used by tests.
func NewTo(w io.Writer, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) Write(_ context.Context, v model.Verdict) error {
	if err := o.enc.Encode(v); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
