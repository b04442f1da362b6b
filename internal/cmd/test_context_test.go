package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/salmonumbrella/psv/internal/output"
)

// withTestContext returns a context writing to buffers and sets the output
// format globals for the duration of a test.
func withTestContext(t *testing.T, format output.Format) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	ctx := withIO(context.Background(), in, out, errBuf)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithQuiet(ctx, true)

	prevType := outputType
	prevFmt := outputFmt
	outputType = format
	outputFmt = string(format)
	t.Cleanup(func() {
		outputType = prevType
		outputFmt = prevFmt
	})

	return ctx, out, errBuf
}
