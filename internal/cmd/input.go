package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/salmonumbrella/psv/internal/extract"
)

// readInputSource reads a whole source into a string. "-" reads stdin and
// compressed files are decoded like table inputs.
func readInputSource(source string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", fmt.Errorf("empty input source")
	}

	rc, err := extract.Open(trimmed, stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", trimmed, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// inputHasData reports whether r is something other than an interactive
// terminal, so reading it will not wait for typing.
func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	file, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
