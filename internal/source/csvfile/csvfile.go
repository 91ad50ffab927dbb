// Package csvfile reads tabular records. The header row names the fields;
// rows with a deviant column count are kept rather than skipped, padded or
// truncated to the header width.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/source"
)

func init() {
	source.Register("csv", func() source.Reader {
		return &Reader{}
	})
}

// Reader implements source.Reader for CSV inputs.
type Reader struct{}

func (*Reader) Read(ctx context.Context, r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	var records []model.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("csv: read row: %w", err)
		}

		rec := make(model.RawRecord, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
}
