// Package jsonl reads newline-delimited JSON records. A file that is instead
// one big JSON array is accepted too, since log exports come both ways.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/source"
)

func init() {
	source.Register("jsonl", func() source.Reader {
		return &Reader{}
	})
}

// Reader implements source.Reader for JSONL and JSON-array inputs.
type Reader struct{}

// maxLine bounds how much of a single input line is retained. The rest of an
// overlong line is discarded rather than failing the read: the extractor caps
// payload size anyway, so 1MB is generous.
const maxLine = 1 << 20

func (*Reader) Read(ctx context.Context, r io.Reader) ([]model.RawRecord, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	// Peek for a JSON array without consuming the stream.
	head, _ := br.Peek(1)
	if len(head) == 1 && head[0] == '[' {
		return readArray(br)
	}

	var records []model.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		line, err := readLine(br)
		if line = strings.TrimSpace(line); line != "" {
			var rec model.RawRecord
			if uerr := json.Unmarshal([]byte(line), &rec); uerr != nil {
				// Not JSON: treat the whole line as the payload so the record
				// still gets a verdict.
				rec = model.RawRecord{"body": line}
			}
			records = append(records, rec)
		}
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("jsonl: read: %w", err)
		}
	}
}

// readLine returns the next line, keeping at most maxLine bytes of it. A line
// past that bound is truncated, never surfaced as an error, so one runaway
// line cannot sink the rest of the batch.
func readLine(br *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		chunk, err := br.ReadSlice('\n')
		if room := maxLine - b.Len(); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			b.Write(chunk)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return strings.TrimSuffix(b.String(), "\n"), err
	}
}

func readArray(r io.Reader) ([]model.RawRecord, error) {
	var records []model.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("jsonl: decode array: %w", err)
	}
	return records, nil
}
