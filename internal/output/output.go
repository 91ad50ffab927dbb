// Package output defines where verdicts go. Implementations live in
// subpackages; multi fans out, async decouples.
package output

import (
	"context"

	"github.com/crimson-sun/warden/internal/model"
)

// Output is a verdict destination.
type Output interface {
	Write(ctx context.Context, v model.Verdict) error
	Close() error
}
