package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	          Action: Split the file into smaller files
//	          Matches: ErrFileTooLarge
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Choose a CSV file with a header row
//	          Matches: ErrEmptyFile
//
//	FILE002 - Invalid CSV: Could not read file as CSV
//	          Action: Check that quotes are balanced and rows have no extra fields
//	          Matches: *ParseError
//
//	FILE003 - Unsupported type: Only .csv files can be imported
//	          Matches: ErrUnsupportedFileType
//
//	FILE004 - No file: No file was selected
//	          Matches: ErrNoFile
//
// # Table Errors (TBL, ROW, COL, REV, EXP)
//
//	TBL001 - No table: Nothing has been imported yet
//	ROW001 - Row out of range: The row no longer exists
//	COL001 - Unknown column: The column is not part of the table
//	REV001 - Stale page: The table changed since the page was loaded
//	EXP001 - Cell too long: A value does not fit in a workbook cell
//
// # Request Errors (IMP, REQ, RATE)
//
//	IMP001  - Busy: Too many imports in progress
//	REQ001  - Request cancelled (context.Canceled)
//	REQ002  - Request timeout (context.DeadlineExceeded)
//	REQ003  - Malformed form: The submitted form could not be read
//	RATE001 - Rate limited
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the original
// error, correlated by request_id.
//
// Errors are matched by identity first (errors.Is / errors.As), so text a
// user supplied (a file name, a column name) never picks the message. Text
// patterns are only consulted for errors that carry no known sentinel.

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoFile is returned when an import request has no file part.
	ErrNoFile = errors.New("no file provided")

	// ErrUnsupportedFileType is returned for uploads without a .csv name.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrMalformedForm is returned when a form body cannot be decoded or its
	// fields do not pair up.
	ErrMalformedForm = errors.New("malformed form")

	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "Could not read file as CSV",
		Action:  "Check that quotes are balanced and rows have no extra fields",
		Code:    "FILE002",
	}
	msgUnsupportedType = UserMessage{
		Message: "Only .csv files can be imported",
		Action:  "Save the file as CSV and try again",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Choose a CSV file with a header row",
		Code:    "FILE005",
	}

	msgNoTable = UserMessage{
		Message: "No table is loaded",
		Action:  "Upload a CSV file first",
		Code:    "TBL001",
	}
	msgRowOutOfRange = UserMessage{
		Message: "That row no longer exists",
		Action:  "The table was refreshed; try again",
		Code:    "ROW001",
	}
	msgUnknownColumn = UserMessage{
		Message: "That column does not exist in this table",
		Action:  "Reload the page",
		Code:    "COL001",
	}
	msgStaleRevision = UserMessage{
		Message: "The table changed since this page was loaded",
		Action:  "The latest version is shown; repeat the change if needed",
		Code:    "REV001",
	}
	msgCellTooLong = UserMessage{
		Message: "A cell is too long for an Excel workbook",
		Action:  "Shorten the value or download CSV instead",
		Code:    "EXP001",
	}

	msgTooManyImports = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "REQ002",
	}
	msgMalformedForm = UserMessage{
		Message: "The submitted form could not be read",
		Action:  "Reload the page and try again",
		Code:    "REQ003",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorTargets is checked in order with errors.Is. ErrEmptyFile comes
// before the *ParseError check that follows the list.
var errorTargets = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrEmptyFile, msgEmptyFile},
	{ErrUnsupportedFileType, msgUnsupportedType},
	{ErrNoFile, msgNoFile},
	{ErrNoTable, msgNoTable},
	{ErrRowOutOfRange, msgRowOutOfRange},
	{ErrUnknownColumn, msgUnknownColumn},
	{ErrStaleRevision, msgStaleRevision},
	{ErrCellTooLong, msgCellTooLong},
	{ErrTooManyImports, msgTooManyImports},
	{ErrMalformedForm, msgMalformedForm},
	{ErrRateLimited, msgRateLimited},
	{context.Canceled, msgCanceled},
	{context.DeadlineExceeded, msgTimeout},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback for errors without a sentinel in their
// chain, such as errors from other packages that only share the text.
var errorPatterns = []errorPattern{
	{"context canceled", msgCanceled},
	{"context deadline exceeded", msgTimeout},
	{"request body too large", msgFileTooLarge},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win; then *ParseError; then text patterns; then ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return msgInvalidCSV
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
