package psv

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// NullPolicy controls how absent values appear in records.
type NullPolicy int

const (
	// NullEmit writes absent values as null.
	NullEmit NullPolicy = iota
	// NullOmit leaves absent values out of the record.
	NullOmit
)

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is a row object that keeps column order when encoded. Keys are not
// deduplicated; on decode the last duplicate wins.
type Record []Field

// Lookup returns the value of the last field named key.
func (r Record) Lookup(key string) (any, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Key == key {
			return r[i].Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as an object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a mapping in field order.
func (r Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range r {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
		val := &yaml.Node{}
		if err := val.Encode(f.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Document is the output shape of one table.
type Document struct {
	ID             string     `json:"id" yaml:"id"`
	Headers        []string   `json:"headers" yaml:"headers"`
	Keys           []string   `json:"keys" yaml:"keys"`
	DataAnnotation [][]string `json:"data_annotation" yaml:"data_annotation"`
	Rows           []Record   `json:"rows" yaml:"rows"`
}

// BuildRecord projects row into a Record keyed by column.
func BuildRecord(cols []Column, proj *Projector, row Row, policy NullPolicy) Record {
	values := proj.Project(row)
	rec := make(Record, 0, len(cols))
	for i, col := range cols {
		var v any
		if i < len(values) {
			v = values[i]
		}
		if v == nil && policy == NullOmit {
			continue
		}
		rec = append(rec, Field{Key: col.Key, Value: v})
	}
	return rec
}

// BuildRecords projects every row held by t.
func BuildRecords(t *Table, policy NullPolicy) []Record {
	proj := NewProjector(t)
	recs := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		recs = append(recs, BuildRecord(t.Columns, proj, row, policy))
	}
	return recs
}

// BuildDocument renders t and its rows.
func BuildDocument(t *Table, policy NullPolicy) Document {
	return Document{
		ID:             t.ID.String(),
		Headers:        t.Headers(),
		Keys:           t.Keys(),
		DataAnnotation: t.Annotations(),
		Rows:           BuildRecords(t, policy),
	}
}
