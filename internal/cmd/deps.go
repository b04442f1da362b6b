package cmd

import (
	"io"
	"os"

	"github.com/salmonumbrella/psv/internal/extract"
)

var (
	envGet       = os.Getenv
	createOutput = func(name string) (io.WriteCloser, error) { return os.Create(name) }
	newExtractor = extract.New
)
