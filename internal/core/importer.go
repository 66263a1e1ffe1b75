package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultMaxFileSize is the import size limit when none is configured (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when the input exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrMixedLineBreaks is returned when LF-terminated input also uses a
	// lone CR as a line break in the header row.
	ErrMixedLineBreaks = errors.New("mixed line breaks")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError describes why an input could not be read as CSV.
// Line is 0 when the failure is not tied to a line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Importer reads uploaded files into tables.
type Importer struct {
	MaxFileSize int64
}

// NewImporter returns an importer with the given size limit.
// A non-positive limit means DefaultMaxFileSize.
func NewImporter(maxFileSize int64) *Importer {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Importer{MaxFileSize: maxFileSize}
}

// Import reads all of r and parses it. The first row is the header row.
// On failure the returned error is ErrFileTooLarge or a *ParseError.
func (im *Importer) Import(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, im.MaxFileSize+1))
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read file: %w", err)}
	}
	if int64(len(data)) > im.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, im.MaxFileSize)
	}
	return parseCSV(data)
}

// ParseCSV parses CSV text from r with no size limit.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read file: %w", err)}
	}
	return parseCSV(data)
}

func parseCSV(data []byte) (*Table, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	data = normalizeLineBreaks(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, toParseError(err)
	}

	for _, h := range header {
		if strings.ContainsRune(h, '\r') {
			return nil, &ParseError{Line: 1, Err: ErrMixedLineBreaks}
		}
	}

	schema, err := NewSchema(NormalizeHeaders(header))
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	t := &Table{Schema: schema, Records: []Record{}}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}
		rec, err := schema.RecordFrom(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Line: line, Err: err}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func toParseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}

// normalizeLineBreaks turns a lone CR into LF for files that never use LF
// (classic Mac line endings). encoding/csv only splits records on LF.
func normalizeLineBreaks(data []byte) []byte {
	if bytes.IndexByte(data, '\n') >= 0 || bytes.IndexByte(data, '\r') < 0 {
		return data
	}
	return bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// IsCSVFileName reports whether name has a .csv extension.
func IsCSVFileName(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}
