package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema is the ordered, unique list of column names for a table.
// It is built once per import and never changes afterwards.
type Schema struct {
	headers []string
	index   map[string]int
}

// NewSchema builds a Schema from header names.
// Names must be unique; use NormalizeHeaders first for raw CSV input.
func NewSchema(headers []string) (*Schema, error) {
	s := &Schema{
		headers: make([]string, len(headers)),
		index:   make(map[string]int, len(headers)),
	}
	for i, h := range headers {
		if _, dup := s.index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		s.headers[i] = h
		s.index[h] = i
	}
	return s, nil
}

// Headers returns a copy of the column names in order.
func (s *Schema) Headers() []string {
	out := make([]string, len(s.headers))
	copy(out, s.headers)
	return out
}

// Width returns the number of columns.
func (s *Schema) Width() int {
	return len(s.headers)
}

// Lookup returns the position of a column.
func (s *Schema) Lookup(header string) (int, bool) {
	i, ok := s.index[header]
	return i, ok
}

// NewRecord returns a record with every column set to the empty string.
func (s *Schema) NewRecord() Record {
	return Record{schema: s, values: make([]string, len(s.headers))}
}

// RecordFrom builds a record from positional values.
// Missing trailing values are empty; extra values are an error.
func (s *Schema) RecordFrom(values []string) (Record, error) {
	if len(values) > len(s.headers) {
		return Record{}, fmt.Errorf("got %d fields, expected %d", len(values), len(s.headers))
	}
	r := s.NewRecord()
	copy(r.values, values)
	return r, nil
}

// NormalizeHeaders trims header names, names blank columns after their
// position and suffixes repeated names so every name is unique.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Column " + strconv.Itoa(i+1)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Record is one table row, bound to the Schema that created it.
type Record struct {
	schema *Schema
	values []string
}

// Get returns the value of a column.
func (r Record) Get(header string) (string, bool) {
	i, ok := r.schema.Lookup(header)
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Values returns a copy of the values in column order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the record as header -> value.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for i, h := range r.schema.headers {
		m[h] = r.values[i]
	}
	return m
}

func (r Record) clone() Record {
	return Record{schema: r.schema, values: r.Values()}
}

// Table is the result of a successful import.
type Table struct {
	Schema  *Schema
	Records []Record
}

// NoEdit is the EditCursor value when no row is being edited.
const NoEdit = -1

// State is a value snapshot of an editor, safe to read without locks.
type State struct {
	Loaded   bool       `json:"loaded"`
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	Editing  int        `json:"editing"`
	Revision uint64     `json:"revision"`
}

// IsEditing reports whether row is the row under edit.
func (s State) IsEditing(row int) bool {
	return s.Editing != NoEdit && s.Editing == row
}
