package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func loadEditor(t *testing.T, csvText string) *Editor {
	t.Helper()
	table, err := ParseCSV(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	e := NewEditor()
	e.Load(table)
	return e
}

func cellValue(t *testing.T, e *Editor, row int, header string) string {
	t.Helper()
	r, err := e.Row(row)
	if err != nil {
		t.Fatalf("Row(%d) error = %v", row, err)
	}
	v, ok := r.Get(header)
	if !ok {
		t.Fatalf("Row(%d) has no column %q", row, header)
	}
	return v
}

func TestEditor_AliceBobScenario(t *testing.T) {
	e := loadEditor(t, "name,age\nAlice,30\nBob,25\n")

	if _, err := e.DeleteRow(0); err != nil {
		t.Fatalf("DeleteRow(0) error = %v", err)
	}
	if _, err := e.AddRow(); err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}

	var out strings.Builder
	if err := WriteCSV(&out, e.Snapshot()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if want := "name,age\nBob,25\n,\n"; out.String() != want {
		t.Errorf("export = %q, want %q", out.String(), want)
	}
}

func TestEditor_Empty(t *testing.T) {
	e := NewEditor()

	if e.Loaded() {
		t.Error("Loaded() = true on a new editor")
	}
	if e.Headers() != nil {
		t.Errorf("Headers() = %v, want nil", e.Headers())
	}
	if e.Len() != 0 {
		t.Errorf("Len() = %d, want 0", e.Len())
	}
	if _, ok := e.EditCursor(); ok {
		t.Error("EditCursor() reports an edit on a new editor")
	}

	_, addErr := e.AddRow()
	_, delErr := e.DeleteRow(0)
	_, setErr := e.SetCell(0, "a", "x")
	ops := map[string]error{
		"BeginEdit": e.BeginEdit(0),
		"AddRow":    addErr,
		"DeleteRow": delErr,
		"SetCell":   setErr,
	}
	for op, err := range ops {
		if !errors.Is(err, ErrNoTable) {
			t.Errorf("%s error = %v, want ErrNoTable", op, err)
		}
	}

	st := e.Snapshot()
	if st.Loaded || st.Editing != NoEdit {
		t.Errorf("Snapshot() = %+v, want unloaded with no edit", st)
	}
}

func TestEditor_AddRow(t *testing.T) {
	e := loadEditor(t, "a,b,c\n1,2,3\n")
	before := e.Len()
	rev := e.Revision()

	idx, err := e.AddRow()
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	if idx != before {
		t.Errorf("AddRow() index = %d, want %d", idx, before)
	}
	if e.Len() != before+1 {
		t.Errorf("Len() = %d, want %d", e.Len(), before+1)
	}
	if e.Revision() <= rev {
		t.Errorf("Revision() = %d, want > %d", e.Revision(), rev)
	}

	row, err := e.Row(idx)
	if err != nil {
		t.Fatalf("Row(%d) error = %v", idx, err)
	}
	if want := map[string]string{"a": "", "b": "", "c": ""}; !reflect.DeepEqual(row.Map(), want) {
		t.Errorf("new row = %v, want %v", row.Map(), want)
	}

	if _, editing := e.EditCursor(); editing {
		t.Error("AddRow entered edit mode")
	}
}

func TestEditor_AddRow_HeaderOnlyTable(t *testing.T) {
	e := loadEditor(t, "name,age\n")
	if !e.Loaded() || e.Len() != 0 {
		t.Fatalf("Loaded() = %v, Len() = %d, want loaded and empty", e.Loaded(), e.Len())
	}

	if _, err := e.AddRow(); err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	if got, want := e.Snapshot().Rows, [][]string{{"", ""}}; !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestEditor_DeleteRow(t *testing.T) {
	e := loadEditor(t, "n\nr0\nr1\nr2\nr3\n")

	removed, err := e.DeleteRow(1)
	if err != nil {
		t.Fatalf("DeleteRow(1) error = %v", err)
	}
	if got := removed.Values(); !reflect.DeepEqual(got, []string{"r1"}) {
		t.Errorf("removed = %q, want [r1]", got)
	}
	if got, want := e.Snapshot().Rows, [][]string{{"r0"}, {"r2"}, {"r3"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("rows after first delete = %q, want %q", got, want)
	}

	if _, err := e.DeleteRow(2); err != nil {
		t.Fatalf("DeleteRow(2) error = %v", err)
	}
	if got, want := e.Snapshot().Rows, [][]string{{"r0"}, {"r2"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("rows after second delete = %q, want %q", got, want)
	}
}

func TestEditor_OutOfRangeIsNoOp(t *testing.T) {
	e := loadEditor(t, "a\n1\n2\n")
	if err := e.BeginEdit(1); err != nil {
		t.Fatal(err)
	}
	before := e.Snapshot()

	for _, row := range []int{-1, 2, 100} {
		_, delErr := e.DeleteRow(row)
		_, setErr := e.SetCell(row, "a", "x")
		_, getErr := e.Row(row)
		ops := map[string]error{
			"DeleteRow": delErr,
			"BeginEdit": e.BeginEdit(row),
			"SetCell":   setErr,
			"Row":       getErr,
		}
		for op, err := range ops {
			if !errors.Is(err, ErrRowOutOfRange) {
				t.Errorf("%s(%d) error = %v, want ErrRowOutOfRange", op, row, err)
			}
		}
	}

	if after := e.Snapshot(); !reflect.DeepEqual(after, before) {
		t.Errorf("state changed:\n got %+v\nwant %+v", after, before)
	}
}

func TestEditor_SingleEditor(t *testing.T) {
	e := loadEditor(t, "a\n1\n2\n3\n")

	if err := e.BeginEdit(0); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginEdit(2); err != nil {
		t.Fatal(err)
	}

	if cur, ok := e.EditCursor(); !ok || cur != 2 {
		t.Errorf("EditCursor() = %d, %v, want 2, true", cur, ok)
	}

	st := e.Snapshot()
	editing := 0
	for i := range st.Rows {
		if st.IsEditing(i) {
			editing++
		}
	}
	if editing != 1 {
		t.Errorf("%d rows in edit mode, want 1", editing)
	}

	e.SaveEdit()
	if _, ok := e.EditCursor(); ok {
		t.Error("EditCursor() still set after SaveEdit")
	}
}

func TestEditor_SetCell(t *testing.T) {
	e := loadEditor(t, "name,age\nAlice,30\n")
	if err := e.BeginEdit(0); err != nil {
		t.Fatal(err)
	}

	old, err := e.SetCell(0, "age", "31")
	if err != nil {
		t.Fatalf("SetCell() error = %v", err)
	}
	if old != "30" {
		t.Errorf("SetCell() old = %q, want 30", old)
	}

	// Applied before save.
	if got := cellValue(t, e, 0, "age"); got != "31" {
		t.Errorf("age before save = %q, want 31", got)
	}

	e.SaveEdit()
	if got := cellValue(t, e, 0, "age"); got != "31" {
		t.Errorf("age after save = %q, want 31", got)
	}
}

func TestEditor_SetCell_AnyString(t *testing.T) {
	e := loadEditor(t, "a\nx\n")

	for _, v := range []string{"", "  ", "with,comma", `with "quotes"`, "line\nbreak", "ünïcødé"} {
		if _, err := e.SetCell(0, "a", v); err != nil {
			t.Fatalf("SetCell(%q) error = %v", v, err)
		}
		if got := cellValue(t, e, 0, "a"); got != v {
			t.Errorf("value = %q, want %q", got, v)
		}
	}
}

func TestEditor_SetCell_UnknownColumn(t *testing.T) {
	e := loadEditor(t, "a,b\n1,2\n")
	before := e.Snapshot()

	if _, err := e.SetCell(0, "c", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("SetCell() error = %v, want ErrUnknownColumn", err)
	}
	if after := e.Snapshot(); !reflect.DeepEqual(after, before) {
		t.Errorf("state changed: got %+v, want %+v", after, before)
	}
}

func TestEditor_SaveWithoutEditIsNoOp(t *testing.T) {
	e := loadEditor(t, "a\n1\n")
	rev := e.Revision()

	e.SaveEdit()
	if e.Revision() != rev {
		t.Errorf("Revision() = %d, want %d", e.Revision(), rev)
	}
}

func TestEditor_DeleteAdjustsCursor(t *testing.T) {
	tests := []struct {
		name       string
		editing    int
		deleteRow  int
		wantCursor int
	}{
		{name: "delete edited row clears cursor", editing: 1, deleteRow: 1, wantCursor: NoEdit},
		{name: "delete above shifts cursor up", editing: 2, deleteRow: 0, wantCursor: 1},
		{name: "delete below keeps cursor", editing: 0, deleteRow: 2, wantCursor: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadEditor(t, "a\nr0\nr1\nr2\n")
			if err := e.BeginEdit(tt.editing); err != nil {
				t.Fatal(err)
			}
			want := cellValue(t, e, tt.editing, "a")

			if _, err := e.DeleteRow(tt.deleteRow); err != nil {
				t.Fatalf("DeleteRow() error = %v", err)
			}

			cur, ok := e.EditCursor()
			if cur != tt.wantCursor {
				t.Errorf("EditCursor() = %d, want %d", cur, tt.wantCursor)
			}
			if ok {
				if got := cellValue(t, e, cur, "a"); got != want {
					t.Errorf("cursor moved to record %q, want %q", got, want)
				}
			}
		})
	}
}

func TestEditor_HeadersStable(t *testing.T) {
	e := loadEditor(t, "b,a,c\n1,2,3\n")
	want := []string{"b", "a", "c"}

	_, _ = e.AddRow()
	_, _ = e.SetCell(0, "a", "x")
	if err := e.BeginEdit(1); err != nil {
		t.Fatal(err)
	}
	e.SaveEdit()
	_, _ = e.DeleteRow(0)
	_, _ = e.DeleteRow(0)

	if got := e.Headers(); !reflect.DeepEqual(got, want) {
		t.Errorf("Headers() = %q, want %q", got, want)
	}
	if e.Len() != 0 {
		t.Errorf("Len() = %d, want 0", e.Len())
	}
}

func TestEditor_LoadReplacesAndClearsCursor(t *testing.T) {
	e := loadEditor(t, "a\n1\n2\n")
	if err := e.BeginEdit(1); err != nil {
		t.Fatal(err)
	}
	rev := e.Revision()

	table, err := ParseCSV(strings.NewReader("x,y\n9,8\n"))
	if err != nil {
		t.Fatal(err)
	}
	e.Load(table)

	if got := e.Headers(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Headers() = %q, want [x y]", got)
	}
	if got, want := e.Snapshot().Rows, [][]string{{"9", "8"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
	if _, ok := e.EditCursor(); ok {
		t.Error("Load kept the edit cursor")
	}
	if e.Revision() <= rev {
		t.Errorf("Revision() = %d, want > %d", e.Revision(), rev)
	}

	// Loading copies records; editing must not reach back into table.
	if _, err := e.SetCell(0, "x", "changed"); err != nil {
		t.Fatal(err)
	}
	if v, _ := table.Records[0].Get("x"); v != "9" {
		t.Errorf("source table value = %q, want 9", v)
	}
}

func TestEditor_CheckRevision(t *testing.T) {
	e := loadEditor(t, "a\n1\n")
	rev := e.Revision()
	if err := e.CheckRevision(rev); err != nil {
		t.Fatalf("CheckRevision(current) error = %v", err)
	}

	_, _ = e.AddRow()
	if err := e.CheckRevision(rev); !errors.Is(err, ErrStaleRevision) {
		t.Errorf("CheckRevision(old) error = %v, want ErrStaleRevision", err)
	}
}

func TestEditor_SnapshotIsCopy(t *testing.T) {
	e := loadEditor(t, "a\n1\n")
	st := e.Snapshot()
	st.Rows[0][0] = "mutated"
	st.Headers[0] = "mutated"

	if got := cellValue(t, e, 0, "a"); got != "1" {
		t.Errorf("value = %q, want 1", got)
	}
	if got := e.Headers(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Headers() = %q, want [a]", got)
	}
}

func TestNewSchema_RejectsDuplicates(t *testing.T) {
	if _, err := NewSchema([]string{"a", "b", "a"}); err == nil {
		t.Error("NewSchema() with duplicate names: error = nil")
	}
}

func TestSchema_RecordFrom(t *testing.T) {
	s, err := NewSchema([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}

	r, err := s.RecordFrom([]string{"1"})
	if err != nil {
		t.Fatalf("RecordFrom(short) error = %v", err)
	}
	if got := r.Values(); !reflect.DeepEqual(got, []string{"1", ""}) {
		t.Errorf("Values() = %q, want [1 \"\"]", got)
	}

	if _, err := s.RecordFrom([]string{"1", "2", "3"}); err == nil {
		t.Error("RecordFrom(wide) error = nil")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
}
