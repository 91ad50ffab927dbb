// Package normalize maps heterogeneous log records onto the canonical input
// type. It is the single boundary where untyped data is allowed: everything
// past it is strictly typed. Normalization is total — a best-effort canonical
// record always comes back, with degraded=true when the input was missing
// payload fields or could not be coerced cleanly.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/warden/internal/model"
)

var ipv4RE = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)

// Field aliases, in priority order. Real-world logs disagree on names; we
// accept the union seen across nginx, CDN, and application log formats.
var (
	timeKeys   = []string{"time", "timestamp", "ts"}
	ipKeys     = []string{"ip", "remote_ip", "client_ip", "source_ip", "host", "ip_address", "src_ip"}
	methodKeys = []string{"method", "http_method"}
	urlKeys    = []string{"url", "path"}
	bodyKeys   = []string{"body", "data"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
}

// Normalize converts a raw record into a canonical one. It never fails:
// unusable fields fall back to documented defaults. degraded reports whether
// the record was missing url/body or needed a lossy coercion.
func Normalize(raw model.RawRecord) (model.CanonicalRecord, bool) {
	headers, degraded := headerMap(raw)

	rec := model.CanonicalRecord{
		Method:  "GET",
		Headers: headers,
	}

	if v, ok := firstPresent(raw, timeKeys); ok {
		ts, err := coerceTime(v)
		if err != nil {
			degraded = true
		} else {
			rec.Timestamp = ts
		}
	}

	if v, ok := firstPresent(raw, ipKeys); ok {
		rec.SourceIP = coerceString(v)
	}
	if rec.SourceIP == "" {
		rec.SourceIP = headerIP(rec.Headers)
	}
	if rec.SourceIP == "" {
		rec.SourceIP = scanIP(raw)
	}
	if rec.SourceIP == "" {
		rec.SourceIP = "0.0.0.0"
	}

	if v, ok := firstPresent(raw, methodKeys); ok {
		if m := strings.ToUpper(strings.TrimSpace(coerceString(v))); m != "" {
			rec.Method = m
		}
	}

	if v, ok := firstPresent(raw, urlKeys); ok {
		rec.URL = coerceString(v)
	} else {
		degraded = true
	}

	if v, ok := firstPresent(raw, bodyKeys); ok {
		rec.Body = coerceString(v)
	} else {
		degraded = true
	}

	return rec, degraded
}

func firstPresent(raw model.RawRecord, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// coerceString stringifies any scalar. Non-scalar values degrade to their
// fmt representation rather than failing.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// coerceTime accepts RFC3339-ish strings, common log layouts, and unix
// seconds (numeric or numeric string).
func coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty time")
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Unix(int64(secs), 0).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unparseable time %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported time type %T", v)
	}
}

// headerMap coerces the headers field. A headers value that is present but
// not an object is a coercion failure and reported as degraded.
func headerMap(raw model.RawRecord) (map[string]string, bool) {
	v, ok := raw["headers"]
	if !ok || v == nil {
		return nil, false
	}
	h, ok := v.(map[string]any)
	if !ok {
		return nil, true
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = coerceString(v)
	}
	return out, false
}

func headerIP(headers map[string]string) string {
	for _, key := range []string{"x-forwarded-for", "x-real-ip"} {
		if v := headers[key]; v != "" {
			// X-Forwarded-For may carry a chain; the first hop is the client.
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// scanIP is the last-ditch fallback: find anything IPv4-shaped anywhere in
// the record.
func scanIP(raw model.RawRecord) string {
	return ipv4RE.FindString(fmt.Sprint(raw))
}
