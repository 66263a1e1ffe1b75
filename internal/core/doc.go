// Package core provides the table model and the import, edit and export logic.
//
// It has no HTTP dependencies and can be driven by web handlers, tests or
// any other frontend.
//
// # Model
//
// A [Schema] is the ordered, unique column list taken from the header row of
// an import. A [Record] holds one value per column and is bound to the schema
// that created it, so a row can never miss a column. An [Editor] owns one
// schema, its rows and the edit cursor (the single row open for inline
// editing, or [NoEdit]).
//
// # Flow
//
//  1. [Importer.Import] parses an upload into a [Table], or returns a
//     [*ParseError] / [ErrFileTooLarge] and nothing changes.
//  2. [Editor.Load] replaces the whole table; an edit in progress is dropped.
//  3. [Editor.BeginEdit], [Editor.SetCell], [Editor.SaveEdit],
//     [Editor.DeleteRow] and [Editor.AddRow] mutate it. Bad row indexes return
//     [ErrRowOutOfRange] and leave the table as it was.
//  4. [WriteCSV] (or [WriteXLSX]) serializes an [Editor.Snapshot].
//
// # Errors
//
// Technical errors are mapped to user messages with [MapError]. Codes are
// listed in error_messages.go.
//
// # Audit
//
// Every mutation is recorded as a structured log entry by [LogAudit] with a
// severity: low for edit mode changes, medium for cell edits and added rows,
// high for row deletes and imports.
package core
