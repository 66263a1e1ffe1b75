package core

import (
	"context"

	"github.com/JonMunkholm/csvedit/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport    AuditAction = "import"
	ActionBeginEdit AuditAction = "begin_edit"
	ActionSaveEdit  AuditAction = "save_edit"
	ActionCellEdit  AuditAction = "cell_edit"
	ActionRowAdd    AuditAction = "row_add"
	ActionRowDelete AuditAction = "row_delete"
	ActionExport    AuditAction = "export"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditLogParams contains the fields of one audit entry.
// Zero-valued fields are left out of the log line.
type AuditLogParams struct {
	Action   AuditAction
	Row      int
	HasRow   bool
	Column   string
	OldValue string
	NewValue string
	RowData  map[string]string
	Rows     int
	FileName string
	Format   string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionRowDelete:
		return SeverityHigh
	case ActionBeginEdit, ActionSaveEdit, ActionExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// LogAudit writes an audit entry to the request's logger.
// Entries are log lines only; nothing is stored.
func LogAudit(ctx context.Context, p AuditLogParams) {
	attrs := []any{
		"action", string(p.Action),
		"severity", string(determineSeverity(p.Action)),
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		attrs = append(attrs, "ip", ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		attrs = append(attrs, "user_agent", ua)
	}
	if p.HasRow {
		attrs = append(attrs, "row", p.Row)
	}
	if p.Column != "" {
		attrs = append(attrs, "column", p.Column, "old_value", p.OldValue, "new_value", p.NewValue)
	}
	if p.RowData != nil {
		attrs = append(attrs, "row_data", p.RowData)
	}
	if p.Rows > 0 {
		attrs = append(attrs, "rows", p.Rows)
	}
	if p.FileName != "" {
		attrs = append(attrs, "file", p.FileName)
	}
	if p.Format != "" {
		attrs = append(attrs, "format", p.Format)
	}

	logging.FromContext(ctx).InfoContext(ctx, "audit", attrs...)
}

// RecordCellEdit logs a cell edit.
func RecordCellEdit(ctx context.Context, row int, column, oldValue, newValue string) {
	LogAudit(ctx, AuditLogParams{
		Action:   ActionCellEdit,
		Row:      row,
		HasRow:   true,
		Column:   column,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

// RecordRowDelete logs a row deletion with the removed values.
func RecordRowDelete(ctx context.Context, row int, rowData map[string]string) {
	LogAudit(ctx, AuditLogParams{
		Action:  ActionRowDelete,
		Row:     row,
		HasRow:  true,
		RowData: rowData,
	})
}
