package parse

import (
	"regexp"
	"strings"
)

// Handheld scanners often prepend an AIM symbology identifier such as "]C1"
// (Code 128) or "]E0" (EAN-13) to the decoded payload.
var symbologyRe = regexp.MustCompile(`^\][A-Za-z]\d`)

// Barcode normalizes a scanned or hand-typed roll barcode: surrounding
// whitespace and a leading symbology identifier are stripped and the payload
// is upper-cased. Returns "" when nothing usable remains.
func Barcode(raw string) string {
	s := strings.TrimSpace(raw)
	s = symbologyRe.ReplaceAllString(s, "")
	// Some scanner keyboards emit a trailing CR or tab as the suffix key.
	s = strings.TrimRight(s, "\r\n\t")
	s = strings.TrimSpace(s)
	return strings.ToUpper(s)
}
