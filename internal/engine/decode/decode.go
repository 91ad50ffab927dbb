// Package decode implements the layered payload decoder. Attack payloads are
// routinely wrapped in percent-encoding, HTML entities, or base64 to slip
// past naive matchers; the decoder peels those layers until the text reaches
// a fixed point or an iteration cap, and reports how many layers it removed.
package decode

import (
	"encoding/base64"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLayers bounds the decode loop on adversarial inputs crafted to
// keep producing changes.
const DefaultMaxLayers = 5

// base64ChunkRE matches runs of base64 alphabet long enough to be worth
// attempting to decode. Shorter runs appear constantly in ordinary text.
var base64ChunkRE = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

// Result holds the decoded text plus the obfuscation signals the decoder
// itself produces.
type Result struct {
	Text   string
	Layers int  // iterations that changed the text
	Capped bool // the cap stopped the loop while changes were still occurring
}

// Decode repeatedly applies percent-decoding, HTML entity unescaping, and
// base64 chunk decoding, in that order, until a pass produces no change or
// maxLayers passes have run. Malformed sequences are left verbatim; Decode
// never fails.
func Decode(s string, maxLayers int) Result {
	if maxLayers <= 0 {
		maxLayers = DefaultMaxLayers
	}

	res := Result{Text: s}
	for i := 0; i < maxLayers; i++ {
		next := decodeOnce(res.Text)
		if next == res.Text {
			return res
		}
		res.Text = next
		res.Layers++
	}

	// The loop exhausted the cap. Probe once more to distinguish "converged
	// exactly at the cap" from "still unwinding".
	if decodeOnce(res.Text) != res.Text {
		res.Capped = true
	}
	return res
}

// decodeOnce applies one layer of each transform in fixed order.
func decodeOnce(s string) string {
	s = percentDecode(s)
	s = html.UnescapeString(s)
	s = decodeBase64Chunks(s)
	return s
}

// percentDecode resolves %XX escapes and query-style '+' spaces, leaving
// malformed escapes untouched. A '+' inside a structurally valid base64 run
// is alphabet, not a space, and is preserved so the run can still decode.
func percentDecode(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	spans := base64Spans(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '+' && !inSpan(spans, i):
			b.WriteByte(' ')
		case s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// base64Spans returns the index ranges of runs that are structurally valid
// base64: alphabet-only, padded length. Only these protect their '+'.
func base64Spans(s string) [][2]int {
	if !strings.Contains(s, "+") {
		return nil
	}
	var spans [][2]int
	for _, loc := range base64ChunkRE.FindAllStringIndex(s, -1) {
		chunk := s[loc[0]:loc[1]]
		if len(chunk)%4 != 0 {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(chunk); err != nil {
			continue
		}
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	return spans
}

func inSpan(spans [][2]int, i int) bool {
	for _, sp := range spans {
		if i >= sp[0] && i < sp[1] {
			return true
		}
	}
	return false
}

// decodeBase64Chunks replaces base64-looking substrings with their decoded
// form when the decode succeeds and yields mostly printable text. Anything
// else stays verbatim.
func decodeBase64Chunks(s string) string {
	return base64ChunkRE.ReplaceAllStringFunc(s, func(chunk string) string {
		if len(chunk)%4 != 0 {
			return chunk
		}
		decoded, err := base64.StdEncoding.DecodeString(chunk)
		if err != nil || !looksTextual(decoded) {
			return chunk
		}
		return string(decoded)
	})
}

// looksTextual reports whether decoded bytes are plausible text rather than
// binary noise that happened to be base64-shaped.
func looksTextual(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	printable := 0
	total := 0
	for _, r := range string(b) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return printable*10 >= total*9
}

// CountBase64Chunks reports how many base64-looking runs the text contains,
// independent of whether they decode cleanly.
func CountBase64Chunks(s string) int {
	return len(base64ChunkRE.FindAllStringIndex(s, -1))
}

// Normalize produces the canonical detector input: NFKC-folded, lowercased,
// with all whitespace runs collapsed to single spaces.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
