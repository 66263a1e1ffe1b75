package core

// editor.go holds the grid state for one table: the schema, the rows and the
// single edit cursor. Every method is a complete operation; callers serialize
// access (see session.Session.Do).

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTable is returned for row operations before anything is imported.
	ErrNoTable = errors.New("no table loaded")

	// ErrRowOutOfRange is returned when a row index is outside the table.
	// The table is left untouched.
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrUnknownColumn is returned by SetCell for a header not in the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrStaleRevision is returned by CheckRevision when the caller saw an
	// older version of the table.
	ErrStaleRevision = errors.New("stale revision")
)

// Editor is the grid state manager for one table.
type Editor struct {
	schema   *Schema
	rows     []Record
	editing  int
	revision uint64
}

// NewEditor returns an editor with no table loaded.
func NewEditor() *Editor {
	return &Editor{editing: NoEdit}
}

// Load replaces the whole table with t and clears the edit cursor.
// An edit in progress is dropped.
func (e *Editor) Load(t *Table) {
	e.schema = t.Schema
	e.rows = make([]Record, len(t.Records))
	for i, r := range t.Records {
		e.rows[i] = r.clone()
	}
	e.editing = NoEdit
	e.revision++
}

// Loaded reports whether a table has been imported.
func (e *Editor) Loaded() bool {
	return e.schema != nil
}

// Headers returns the column names, or nil if nothing is loaded.
func (e *Editor) Headers() []string {
	if e.schema == nil {
		return nil
	}
	return e.schema.Headers()
}

// Len returns the number of rows.
func (e *Editor) Len() int {
	return len(e.rows)
}

// Row returns a copy of a row.
func (e *Editor) Row(row int) (Record, error) {
	if err := e.checkRow(row); err != nil {
		return Record{}, err
	}
	return e.rows[row].clone(), nil
}

// EditCursor returns the row under edit, if any.
func (e *Editor) EditCursor() (int, bool) {
	return e.editing, e.editing != NoEdit
}

// Revision returns a counter that changes on every mutation.
func (e *Editor) Revision() uint64 {
	return e.revision
}

// CheckRevision returns ErrStaleRevision if rev is not the current revision.
func (e *Editor) CheckRevision(rev uint64) error {
	if rev != e.revision {
		return fmt.Errorf("%w: have %d, current %d", ErrStaleRevision, rev, e.revision)
	}
	return nil
}

// BeginEdit puts row into edit mode. Any other row leaves edit mode.
func (e *Editor) BeginEdit(row int) error {
	if err := e.checkRow(row); err != nil {
		return err
	}
	e.editing = row
	e.revision++
	return nil
}

// SetCell replaces one value and returns the previous one.
// The change is visible immediately; SaveEdit is not required.
func (e *Editor) SetCell(row int, header, value string) (string, error) {
	if err := e.checkRow(row); err != nil {
		return "", err
	}
	col, ok := e.schema.Lookup(header)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, header)
	}
	old := e.rows[row].values[col]
	e.rows[row].values[col] = value
	e.revision++
	return old, nil
}

// SaveEdit leaves edit mode. Values were already applied by SetCell.
func (e *Editor) SaveEdit() {
	if e.editing == NoEdit {
		return
	}
	e.editing = NoEdit
	e.revision++
}

// DeleteRow removes a row; later rows move up by one.
// The cursor is cleared if it was on the deleted row and follows its record
// if it was below it.
func (e *Editor) DeleteRow(row int) (Record, error) {
	if err := e.checkRow(row); err != nil {
		return Record{}, err
	}
	removed := e.rows[row]
	e.rows = append(e.rows[:row], e.rows[row+1:]...)

	switch {
	case e.editing == row:
		e.editing = NoEdit
	case e.editing > row:
		e.editing--
	}
	e.revision++
	return removed, nil
}

// AddRow appends a row with every column empty and returns its index.
// It does not enter edit mode.
func (e *Editor) AddRow() (int, error) {
	if e.schema == nil {
		return 0, ErrNoTable
	}
	e.rows = append(e.rows, e.schema.NewRecord())
	e.revision++
	return len(e.rows) - 1, nil
}

// Snapshot returns a copy of the current state.
func (e *Editor) Snapshot() State {
	st := State{
		Loaded:   e.Loaded(),
		Headers:  e.Headers(),
		Rows:     make([][]string, len(e.rows)),
		Editing:  e.editing,
		Revision: e.revision,
	}
	for i, r := range e.rows {
		st.Rows[i] = r.Values()
	}
	return st
}

func (e *Editor) checkRow(row int) error {
	if e.schema == nil {
		return ErrNoTable
	}
	if row < 0 || row >= len(e.rows) {
		return fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, len(e.rows))
	}
	return nil
}
