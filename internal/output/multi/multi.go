package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/output"
)

// Multi fans verdicts out to several outputs. If one output fails, the rest
// still receive the verdict.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers the verdict to every wrapped output, joining any errors.
func (m *Multi) Write(ctx context.Context, v model.Verdict) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped output, joining any errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
