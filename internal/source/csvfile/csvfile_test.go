package csvfile

import (
	"context"
	"strings"
	"testing"

	"github.com/crimson-sun/warden/internal/source"
)

func TestReadHeaderKeyed(t *testing.T) {
	input := "time,ip,url,body\n2026-01-01T00:00:00Z,1.2.3.4,/a,hello\n,5.6.7.8,/b,\n"
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["url"] != "/a" || records[0]["ip"] != "1.2.3.4" {
		t.Fatalf("record 0 = %v", records[0])
	}
	if records[1]["body"] != "" {
		t.Fatalf("record 1 = %v", records[1])
	}
}

func TestReadRaggedRows(t *testing.T) {
	input := "url,body,ip\n/short\n/full,payload,9.9.9.9,extra\n"
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["url"] != "/short" {
		t.Fatalf("short row = %v", records[0])
	}
	if _, ok := records[0]["body"]; ok {
		t.Fatalf("short row invented a body field: %v", records[0])
	}
	if records[1]["ip"] != "9.9.9.9" {
		t.Fatalf("long row = %v", records[1])
	}
}

func TestReadQuotedPayload(t *testing.T) {
	input := "url,body\n\"/login\",\"id=1' or 1=1, sleep(5)--\"\n"
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if records[0]["body"] != "id=1' or 1=1, sleep(5)--" {
		t.Fatalf("quoted payload mangled: %v", records[0])
	}
}

func TestReadEmpty(t *testing.T) {
	var r Reader
	records, err := r.Read(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if records != nil {
		t.Fatalf("got %v from empty input", records)
	}
}

func TestRegistered(t *testing.T) {
	if _, err := source.Get("csv"); err != nil {
		t.Fatalf("csv reader not registered: %v", err)
	}
	if source.ForPath("events.CSV") != "csv" {
		t.Fatal("csv extension not recognized")
	}
}
