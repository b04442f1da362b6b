package psv

import "strings"

// EffectKind is what a single line did to the table being parsed.
type EffectKind int

const (
	// EffectNone leaves the pending table untouched.
	EffectNone EffectKind = iota
	// EffectSetID records an explicit table id from an attribute line.
	EffectSetID
	// EffectDiscard drops any pending table.
	EffectDiscard
	// EffectHeader captures a candidate header row.
	EffectHeader
	// EffectCommit accepts the separator row and commits the header.
	EffectCommit
	// EffectReject drops a candidate header that had no matching separator.
	EffectReject
	// EffectRow accepts a data row.
	EffectRow
	// EffectEnd ends the table.
	EffectEnd
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectSetID:
		return "set_id"
	case EffectDiscard:
		return "discard"
	case EffectHeader:
		return "header"
	case EffectCommit:
		return "commit"
	case EffectReject:
		return "reject"
	case EffectRow:
		return "row"
	case EffectEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Effect is the outcome of feeding one line to Step.
type Effect struct {
	Kind    EffectKind
	ID      BoundedString
	Columns []Column
	Row     Row
	// Replay is set when the line does not belong to the current block and
	// should be evaluated again from StateScanning.
	Replay bool
}

// Step is the table state machine. arity is the column count of the pending
// table. Step has no side effects; callers apply the returned Effect.
func Step(state State, line string, arity int) (State, Effect) {
	switch state {
	case StateScanning:
		return stepScanning(line)
	case StatePotentialHeader:
		return stepPotentialHeader(line, arity)
	case StateDataRow:
		return stepDataRow(line, arity)
	default:
		return StateEnd, Effect{Kind: EffectNone}
	}
}

func stepScanning(line string) (State, Effect) {
	if strings.HasPrefix(line, "{") {
		id, found, closed := ParseAttributeLine(line)
		if !closed || !found {
			return StateScanning, Effect{Kind: EffectNone}
		}
		return StateScanning, Effect{Kind: EffectSetID, ID: id}
	}

	content, ok := SplitRowContent(line)
	if !ok {
		return StateScanning, Effect{Kind: EffectDiscard}
	}
	cols := parseHeaderColumns(content)
	if len(cols) == 0 {
		return StateScanning, Effect{Kind: EffectDiscard}
	}
	return StatePotentialHeader, Effect{Kind: EffectHeader, Columns: cols}
}

// stepPotentialHeader waits for the separator row. Lines that are not row
// lines are skipped and leave the candidate header pending.
func stepPotentialHeader(line string, arity int) (State, Effect) {
	content, ok := SplitRowContent(line)
	if !ok {
		return StatePotentialHeader, Effect{Kind: EffectNone}
	}
	if countSeparators(content) != arity {
		return StateScanning, Effect{Kind: EffectReject, Replay: true}
	}
	return StateDataRow, Effect{Kind: EffectCommit}
}

func stepDataRow(line string, arity int) (State, Effect) {
	content, ok := SplitRowContent(line)
	if !ok {
		return StateEnd, Effect{Kind: EffectEnd, Replay: true}
	}
	return StateDataRow, Effect{Kind: EffectRow, Row: parseRow(content, arity)}
}

func parseHeaderColumns(content string) []Column {
	toks, _ := Tokens(content, Delimiter, 0)
	cols := make([]Column, 0, len(toks))
	for _, tok := range toks {
		header := TrimSpace(tok)
		col := Column{
			Header: header,
			Tags:   ExtractAnnotations(header),
		}
		if id, ok := SplitInlineAttribute(header); ok {
			col.Key = id.String()
			col.ExplicitKey = true
		} else {
			col.Key = SynthesizeKey(header)
		}
		cols = append(cols, col)
	}
	return cols
}

func countSeparators(content string) int {
	n := 0
	cur := Cursor{}
	for {
		tok, next, ok := NextToken(content, Delimiter, cur)
		if !ok {
			return n
		}
		if strings.Contains(tok, "---") {
			n++
		}
		cur = next
	}
}

// parseRow reads at most arity cells; missing trailing cells stay absent.
// A bare row marker holds one empty cell.
func parseRow(content string, arity int) Row {
	row := make(Row, arity)
	if content == "" {
		if arity > 0 {
			row[0] = Value("")
		}
		return row
	}
	cur := Cursor{}
	for i := 0; i < arity; i++ {
		tok, next, ok := NextToken(content, Delimiter, cur)
		if !ok {
			break
		}
		row[i] = Value(TrimSpace(tok))
		cur = next
	}
	return row
}
