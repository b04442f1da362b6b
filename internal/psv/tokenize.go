package psv

import "strings"

// Delimiter is the cell separator and row marker of a table block.
const Delimiter = '|'

// Cursor records where tokenization of a buffer stopped.
// The zero value starts at the beginning of the buffer.
type Cursor struct {
	pos  int
	done bool
}

// Offset returns the byte offset the next token starts at.
func (c Cursor) Offset() int {
	return c.pos
}

// NextToken returns the token of s starting at cur, up to the next unescaped
// delim. A backslash followed by a backslash, the delimiter or any ASCII
// punctuation is removed and the following byte kept literally. ok is false
// once the remaining buffer is empty.
func NextToken(s string, delim byte, cur Cursor) (tok string, next Cursor, ok bool) {
	if cur.done || cur.pos >= len(s) {
		return "", Cursor{pos: len(s), done: true}, false
	}

	var b strings.Builder
	i := cur.pos
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isEscapable(s[i+1], delim):
			b.WriteByte(s[i+1])
			i += 2
		case c == delim:
			return b.String(), Cursor{pos: i + 1}, true
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), Cursor{pos: len(s), done: true}, true
}

// Tokens collects at most limit tokens of s. limit <= 0 means no limit.
// The returned cursor can be used to resume after the last token.
func Tokens(s string, delim byte, limit int) ([]string, Cursor) {
	var (
		toks []string
		cur  Cursor
	)
	for limit <= 0 || len(toks) < limit {
		tok, next, ok := NextToken(s, delim, cur)
		if !ok {
			break
		}
		toks = append(toks, tok)
		cur = next
	}
	return toks, cur
}

// SplitRowContent strips the leading row marker and the last unescaped
// delimiter of a delimiter-marked line. ok is false when line is not
// delimiter-marked.
func SplitRowContent(line string) (content string, ok bool) {
	if !IsRowLine(line) {
		return "", false
	}
	content = line[1:]
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] != Delimiter {
			continue
		}
		if precedingBackslashes(content, i)%2 == 1 {
			continue
		}
		return content[:i], true
	}
	return content, true
}

// IsRowLine reports whether line starts with the row marker.
func IsRowLine(line string) bool {
	return len(line) > 0 && line[0] == Delimiter
}

// TrimSpace trims leading and trailing ASCII whitespace.
func TrimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func precedingBackslashes(s string, i int) int {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n
}

func isEscapable(c, delim byte) bool {
	return c == '\\' || c == delim || isPunct(c)
}

func isPunct(c byte) bool {
	switch {
	case c >= '!' && c <= '/':
		return true
	case c >= ':' && c <= '@':
		return true
	case c >= '[' && c <= '`':
		return true
	case c >= '{' && c <= '~':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
