package model

import "time"

// RawRecord is a loosely-typed log record as read from a JSONL line, CSV row,
// or websocket message. Fields may be absent, mistyped, or extra; the
// normalizer is the only component allowed to look inside it.
type RawRecord map[string]any

// CanonicalRecord is the strict input type consumed by the engine.
// URL and Body are always present (empty string when unknown) so downstream
// stages never handle missing text.
type CanonicalRecord struct {
	Timestamp time.Time         // zero when the raw record carried no usable time
	SourceIP  string            // "0.0.0.0" when undiscoverable
	Method    string            // defaults to "GET"
	URL       string
	Body      string
	Headers   map[string]string // possibly empty, never consulted by the extractor
}
