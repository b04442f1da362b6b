package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/salmonumbrella/psv/internal/psv"
)

// Scope decides whether table positions restart for each input.
type Scope string

const (
	// ScopeFile restarts positions at 1 for every input.
	ScopeFile Scope = "file"
	// ScopeGlobal keeps counting across inputs in argument order.
	ScopeGlobal Scope = "global"
)

// ParseScope converts a string to a Scope. Empty defaults to ScopeFile.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeFile, "":
		return ScopeFile, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	default:
		return "", fmt.Errorf("invalid position scope %q (expected file|global)", s)
	}
}

// Selector narrows output to one table by 1-based position or by id.
// The zero value selects every table.
type Selector struct {
	Position int
	ID       string
}

// Validate checks that at most one criterion is set.
func (s Selector) Validate() error {
	if s.Position < 0 {
		return SelectionError{Message: fmt.Sprintf("invalid table position %d (must be 1 or greater)", s.Position)}
	}
	if s.Position > 0 && s.ID != "" {
		return SelectionError{Message: "use only one of --table or --id"}
	}
	return nil
}

// Active reports whether the selector narrows output.
func (s Selector) Active() bool {
	return s.Position > 0 || s.ID != ""
}

// Matches reports whether t is selected.
func (s Selector) Matches(t *psv.Table) bool {
	switch {
	case s.Position > 0:
		return t.Position == s.Position
	case s.ID != "":
		return t.ID.String() == s.ID
	default:
		return true
	}
}

// Handler receives selected tables.
//
// Rows are delivered through Row when the extractor streams; when it
// materializes, Row is not called and the rows are in t.Rows at EndTable.
type Handler interface {
	BeginTable(source string, t *psv.Table) error
	Row(t *psv.Table, row psv.Row) error
	EndTable(t *psv.Table) error
}

// Options configures an Extractor.
type Options struct {
	Selector         Selector
	Scope            Scope
	LegacyTerminator bool
	// Materialize reads all rows of a selected table before EndTable.
	Materialize bool
	// HeadersOnly skips the rows of selected tables; t.RowCount still counts them.
	HeadersOnly bool
	Logger      *slog.Logger
}

// Extractor drives the table parser over one or more inputs.
type Extractor struct {
	opts     Options
	logger   *slog.Logger
	position int
	done     bool
}

// New returns an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Scope == "" {
		opts.Scope = ScopeFile
	}
	return &Extractor{opts: opts, logger: logger}
}

// ExtractInputs processes inputs in order. An input that cannot be opened or
// read is reported as an InputError and the remaining inputs still run; all
// such errors are joined. A handler error or cancellation stops immediately.
func (e *Extractor) ExtractInputs(ctx context.Context, names []string, stdin io.Reader, h Handler) error {
	if err := e.opts.Selector.Validate(); err != nil {
		return err
	}
	if len(names) == 0 {
		names = []string{StdinName}
	}

	var inputErrs []error
	for _, name := range names {
		if e.done {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rc, err := Open(name, stdin)
		if err != nil {
			e.logger.Warn("skipping unreadable input", "input", name, "error", err)
			inputErrs = append(inputErrs, &InputError{Name: name, Err: err})
			continue
		}
		err = e.ExtractReader(ctx, name, rc, h)
		_ = rc.Close()

		var readErr *psv.ReadError
		if errors.As(err, &readErr) {
			e.logger.Warn("input failed while reading", "input", name, "error", err)
			inputErrs = append(inputErrs, &InputError{Name: name, Err: err})
			continue
		}
		if err != nil {
			return errors.Join(append(inputErrs, err)...)
		}
	}
	return errors.Join(inputErrs...)
}

// ExtractReader processes one input.
func (e *Extractor) ExtractReader(ctx context.Context, name string, r io.Reader, h Handler) error {
	offset := 0
	if e.opts.Scope == ScopeGlobal {
		offset = e.position
	}
	p := psv.NewParser(r,
		psv.WithLogger(e.logger),
		psv.WithSourceName(name),
		psv.WithPositionOffset(offset),
		psv.WithLegacyTerminator(e.opts.LegacyTerminator),
	)
	if e.opts.Scope == ScopeGlobal {
		defer func() { e.position = p.Position() }()
	}

	sel := e.opts.Selector
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t, err := p.ParseHeader()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !sel.Matches(t) {
			if err := skipRows(ctx, p, t); err != nil {
				return err
			}
			if sel.Position > 0 && t.Position > sel.Position {
				// positions only grow; nothing later can match
				e.done = e.opts.Scope == ScopeGlobal
				return nil
			}
			continue
		}

		if err := e.emit(ctx, name, p, t, h); err != nil {
			return err
		}
		if sel.Active() {
			if e.opts.Scope == ScopeGlobal {
				e.done = true
			}
			return nil
		}
	}
}

func (e *Extractor) emit(ctx context.Context, name string, p *psv.Parser, t *psv.Table, h Handler) error {
	if err := h.BeginTable(name, t); err != nil {
		return err
	}

	switch {
	case e.opts.HeadersOnly:
		if err := skipRows(ctx, p, t); err != nil {
			return err
		}
	case e.opts.Materialize:
		if err := p.ReadRows(t); err != nil {
			return err
		}
	default:
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := p.NextRow(t)
			if errors.Is(err, psv.ErrEndOfTable) {
				break
			}
			if err != nil {
				return err
			}
			if err := h.Row(t, row); err != nil {
				return err
			}
		}
	}

	return h.EndTable(t)
}

func skipRows(ctx context.Context, p *psv.Parser, t *psv.Table) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := p.SkipRow(t)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
