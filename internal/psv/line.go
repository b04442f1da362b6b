package psv

import (
	"bufio"
	"io"
	"strings"
)

// LineReader yields lines without their terminator. End of input is io.EOF,
// which is distinct from an empty line.
type LineReader struct {
	r       *bufio.Reader
	pending []string
	line    int
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line.
func (l *LineReader) ReadLine() (string, error) {
	if n := len(l.pending); n > 0 {
		s := l.pending[n-1]
		l.pending = l.pending[:n-1]
		l.line++
		return s, nil
	}

	s, err := l.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && s != "" {
			l.line++
			return strings.TrimSuffix(s, "\r"), nil
		}
		return "", err
	}
	l.line++
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// UnreadLine pushes s back so the next ReadLine returns it.
func (l *LineReader) UnreadLine(s string) {
	l.pending = append(l.pending, s)
	l.line--
}

// Line returns the number of the line last returned, starting at 1.
func (l *LineReader) Line() int {
	return l.line
}
