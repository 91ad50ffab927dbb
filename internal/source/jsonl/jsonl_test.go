package jsonl

import (
	"context"
	"strings"
	"testing"

	"github.com/crimson-sun/warden/internal/source"
)

func TestReadLines(t *testing.T) {
	input := `{"url":"/a","body":""}
{"url":"/b","body":"x","ip":"1.2.3.4"}

{"url":"/c","body":""}
`
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[1]["ip"] != "1.2.3.4" {
		t.Fatalf("record 1 = %v", records[1])
	}
}

func TestReadArray(t *testing.T) {
	input := `[{"url":"/a","body":""},{"url":"/b","body":""}]`
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["url"] != "/a" || records[1]["url"] != "/b" {
		t.Fatalf("records = %v", records)
	}
}

func TestReadMalformedLineBecomesPayload(t *testing.T) {
	input := `{"url":"/ok","body":""}
this is not json at all
{"url":"/also-ok","body":""}
`
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 (malformed line kept)", len(records))
	}
	if records[1]["body"] != "this is not json at all" {
		t.Fatalf("malformed line not carried as payload: %v", records[1])
	}
}

func TestReadOverlongLineTruncated(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"url":"/a","body":""}` + "\n")
	b.WriteString(strings.Repeat("A", maxLine+512) + "\n")
	b.WriteString(`{"url":"/b","body":""}` + "\n")

	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 (overlong line kept)", len(records))
	}
	body, _ := records[1]["body"].(string)
	if len(body) != maxLine {
		t.Fatalf("overlong line kept %d bytes, want %d", len(body), maxLine)
	}
	if records[2]["url"] != "/b" {
		t.Fatalf("record after the overlong line lost: %v", records[2])
	}
}

func TestReadEmpty(t *testing.T) {
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records from empty input", len(records))
	}
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var r Reader
	_, err := r.Read(ctx, strings.NewReader(`{"url":"/a"}`+"\n"))
	if err == nil {
		t.Fatal("cancelled context not observed")
	}
}

func TestRegistered(t *testing.T) {
	if _, err := source.Get("jsonl"); err != nil {
		t.Fatalf("jsonl reader not registered: %v", err)
	}
	if source.ForPath("logs.json") != "jsonl" {
		t.Fatal("json extension should default to jsonl")
	}
}
