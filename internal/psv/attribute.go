package psv

import (
	"strings"
	"unicode/utf8"
)

// MaxIDLen bounds table ids and column keys, in bytes.
const MaxIDLen = 255

// BoundedString is a string cut to a maximum byte length. Construction never
// fails; Truncated reports whether input was dropped.
type BoundedString struct {
	value     string
	truncated bool
}

// NewBoundedString bounds s to limit bytes without splitting a UTF-8
// sequence. limit <= 0 disables the bound.
func NewBoundedString(s string, limit int) BoundedString {
	if limit <= 0 || len(s) <= limit {
		return BoundedString{value: s}
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return BoundedString{value: s[:n], truncated: true}
}

func (b BoundedString) String() string { return b.value }

// Truncated reports whether the original value exceeded the bound.
func (b BoundedString) Truncated() bool { return b.truncated }

// IsZero reports whether no value was set.
func (b BoundedString) IsZero() bool { return b.value == "" }

// ExtractAttributeID reads an explicit `#id` from the inside of an attribute
// block. The id must come first; leading spaces are skipped and the id ends
// at a space or `}`.
func ExtractAttributeID(content string) (BoundedString, bool) {
	i := 0
	for i < len(content) && content[i] == ' ' {
		i++
	}
	if i >= len(content) || content[i] != '#' {
		return BoundedString{}, false
	}
	i++

	end := i
	for end < len(content) && content[end] != ' ' && content[end] != '}' {
		end++
	}
	if end == i {
		return BoundedString{}, false
	}
	return NewBoundedString(content[i:end], MaxIDLen), true
}

// ParseAttributeLine parses a line of the form `{#id ...}`. closed is false
// when the line carries no closing brace; such lines are not attribute blocks.
func ParseAttributeLine(line string) (id BoundedString, found, closed bool) {
	if len(line) == 0 || line[0] != '{' {
		return BoundedString{}, false, false
	}
	end := strings.LastIndexByte(line, '}')
	if end <= 0 {
		return BoundedString{}, false, false
	}
	id, found = ExtractAttributeID(TrimSpace(line[1:end]))
	return id, found, true
}

// SplitInlineAttribute looks for an inline `{#key}` block in a header cell.
func SplitInlineAttribute(header string) (BoundedString, bool) {
	open := strings.IndexByte(header, '{')
	if open < 0 {
		return BoundedString{}, false
	}
	rest := header[open+1:]
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return BoundedString{}, false
	}
	return ExtractAttributeID(TrimSpace(rest[:end]))
}
