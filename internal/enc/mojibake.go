package enc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FixMojibake repairs text that was UTF-8 but got decoded as Latin-1 somewhere
// upstream (CSV exports from spreadsheets are the usual culprit). The heuristic
// looks for the marker characters such a double-decode produces; clean input
// passes through unchanged. Best effort, not an encoding detector.
func FixMojibake(s string) string {
	if s == "" {
		return s
	}
	if !strings.ContainsRune(s, 'Ã') && !strings.ContainsRune(s, '�') {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}
