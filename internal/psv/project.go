package psv

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Projector maps raw cells of one table to typed output values.
type Projector struct {
	types []BasicType
}

// NewProjector resolves the effective type of every column of t. The tag
// that decides a column's type is marked consumed.
func NewProjector(t *Table) *Projector {
	types := make([]BasicType, len(t.Columns))
	for i := range t.Columns {
		types[i] = ResolveType(&t.Columns[i])
	}
	return &Projector{types: types}
}

// Types returns the effective type per column.
func (p *Projector) Types() []BasicType {
	return p.types
}

// Project converts row to one value per column. Absent cells become nil.
func (p *Projector) Project(row Row) []any {
	out := make([]any, len(p.types))
	for i, bt := range p.types {
		if i < len(row) {
			out[i] = ProjectCell(bt, row[i])
		}
	}
	return out
}

// ResolveType returns the first of integer, float, bool or text named by the
// column's tags. Tag order decides, so "[text][integer]" is text and
// "[integer][text]" is an integer. A column with none of those but a uuid tag
// resolves to TypeUUID; anything else is text.
func ResolveType(col *Column) BasicType {
	uuidTag := -1
	for i := range col.Tags {
		switch col.Tags[i].Type {
		case TypeInteger, TypeFloat, TypeBool, TypeText:
			col.Tags[i].Consumed = true
			return col.Tags[i].Type
		case TypeUUID:
			if uuidTag < 0 {
				uuidTag = i
			}
		}
	}
	if uuidTag >= 0 {
		col.Tags[uuidTag].Consumed = true
		return TypeUUID
	}
	return TypeText
}

// ProjectCell converts one cell. It never fails: text that does not fit the
// type is returned as a string.
func ProjectCell(bt BasicType, c Cell) any {
	if !c.Present {
		return nil
	}
	s := TrimSpace(c.Value)

	switch bt {
	case TypeInteger:
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, ok := parseFinite(s); ok {
			return f
		}
		return c.Value
	case TypeFloat:
		if s == "" {
			return nil
		}
		if f, ok := parseFinite(s); ok {
			return f
		}
		return c.Value
	case TypeBool:
		if s == "" {
			return nil
		}
		return isTruthy(s)
	case TypeUUID:
		if id, err := uuid.Parse(s); err == nil {
			return id.String()
		}
		return c.Value
	default:
		return c.Value
	}
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isTruthy(s string) bool {
	for _, word := range []string{"true", "yes", "active", "y"} {
		if strings.EqualFold(s, word) {
			return true
		}
	}
	return false
}
