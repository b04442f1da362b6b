package psv

import "strings"

// SynthesizeKey derives a JSON key from header text: lower-case, anything
// outside [a-z0-9_] becomes `_`, runs of `_` collapse and the key never starts
// or ends with `_`. Scanning stops at the first `(`, `[` or `{`.
//
// SynthesizeKey(SynthesizeKey(h)) == SynthesizeKey(h).
func SynthesizeKey(header string) string {
	var b strings.Builder
	last := byte('_')
	for i := 0; i < len(header) && b.Len() < MaxIDLen; i++ {
		c := header[i]
		if c == '(' || c == '[' || c == '{' {
			break
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if !isKeyByte(c) {
			c = '_'
		}
		// also skips a leading underscore, last starts as '_'
		if c == '_' && last == '_' {
			continue
		}
		b.WriteByte(c)
		last = c
	}
	return strings.TrimRight(b.String(), "_")
}

func isKeyByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}
