package psv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Parser pulls table blocks out of a line-oriented input.
//
// A Parser is not safe for concurrent use. Tables it returns belong to the
// caller.
type Parser struct {
	lines            *LineReader
	logger           *slog.Logger
	source           string
	legacyTerminator bool
	position         int
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug tracing of the state machine.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSourceName labels log records with the input name.
func WithSourceName(name string) Option {
	return func(p *Parser) { p.source = name }
}

// WithPositionOffset makes table positions continue after n.
func WithPositionOffset(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.position = n
		}
	}
}

// WithLegacyTerminator drops the line that ends a table, or the row line that
// fails the separator check, instead of scanning it again for the start of
// the next block.
func WithLegacyTerminator(legacy bool) Option {
	return func(p *Parser) { p.legacyTerminator = legacy }
}

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		lines:  NewLineReader(r),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Position returns the position of the last table whose header was committed.
func (p *Parser) Position() int {
	return p.position
}

// ParseHeader scans forward to the next table block and returns it in
// StateDataRow with no rows read. It returns io.EOF when the input holds no
// further table.
func (p *Parser) ParseHeader() (*Table, error) {
	t := &Table{}
	var pendingID BoundedString

	for {
		line, err := p.lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, &ReadError{Line: p.lines.Line(), Err: err}
		}

		state, eff := Step(t.State, line, len(t.Columns))
		switch eff.Kind {
		case EffectSetID:
			pendingID = eff.ID
		case EffectDiscard:
			pendingID = BoundedString{}
			t = &Table{}
		case EffectHeader:
			t.Columns = eff.Columns
			t.ID = pendingID
			if t.ID.IsZero() {
				t.ID = NewBoundedString(fmt.Sprintf("table%d", p.position+1), MaxIDLen)
			}
		case EffectReject:
			p.logger.Debug("rejected table block",
				"source", p.source,
				"line", p.lines.Line(),
				"columns", len(t.Columns))
			pendingID = BoundedString{}
			t = &Table{}
		case EffectCommit:
			p.position++
			t.Position = p.position
			p.logger.Debug("table header committed",
				"source", p.source,
				"line", p.lines.Line(),
				"id", t.ID.String(),
				"position", t.Position,
				"columns", len(t.Columns))
		}
		if eff.Replay && !p.legacyTerminator {
			p.lines.UnreadLine(line)
		}
		t.State = state

		if t.State == StateDataRow {
			return t, nil
		}
	}
}

// NextRow reads the next data row of t. It returns ErrEndOfTable once the
// table has ended.
func (p *Parser) NextRow(t *Table) (Row, error) {
	line, err := p.rowLine(t)
	if err != nil {
		return nil, err
	}

	state, eff := Step(t.State, line, len(t.Columns))
	t.State = state
	if eff.Kind != EffectRow {
		p.endTable(t, line, eff.Replay)
		return nil, ErrEndOfTable
	}
	t.RowCount++
	return eff.Row, nil
}

// SkipRow consumes the next data row of t without splitting it into cells.
// It reports false once the table has ended.
func (p *Parser) SkipRow(t *Table) (bool, error) {
	line, err := p.rowLine(t)
	if errors.Is(err, ErrEndOfTable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !IsRowLine(line) {
		t.State = StateEnd
		p.endTable(t, line, true)
		return false, nil
	}
	t.RowCount++
	return true, nil
}

// ReadRows reads every remaining row of t into t.Rows.
func (p *Parser) ReadRows(t *Table) error {
	for {
		row, err := p.NextRow(t)
		if errors.Is(err, ErrEndOfTable) {
			return nil
		}
		if err != nil {
			return err
		}
		t.AppendRow(row)
	}
}

// ParseTable parses the next table with all of its rows.
func (p *Parser) ParseTable() (*Table, error) {
	t, err := p.ParseHeader()
	if err != nil {
		return nil, err
	}
	if err := p.ReadRows(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) rowLine(t *Table) (string, error) {
	switch t.State {
	case StateDataRow:
	case StateEnd:
		return "", ErrEndOfTable
	default:
		return "", ErrNotReady
	}

	line, err := p.lines.ReadLine()
	if errors.Is(err, io.EOF) {
		t.State = StateEnd
		return "", ErrEndOfTable
	}
	if err != nil {
		return "", &ReadError{Line: p.lines.Line(), Err: err}
	}
	return line, nil
}

func (p *Parser) endTable(t *Table, line string, replay bool) {
	if replay && !p.legacyTerminator {
		p.lines.UnreadLine(line)
	}
	p.logger.Debug("table ended",
		"source", p.source,
		"id", t.ID.String(),
		"rows", t.RowCount)
}
