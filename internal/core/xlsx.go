package core

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ExportXLSXFileName is the download name for workbook exports.
const ExportXLSXFileName = "edited_data.xlsx"

// xlsxSheet is the single sheet every export contains.
const xlsxSheet = "Sheet1"

// ErrCellTooLong is returned when a value exceeds the workbook cell limit
// (excelize.TotalCellChars). excelize would otherwise truncate it.
var ErrCellTooLong = errors.New("cell too long for xlsx")

// WriteXLSX writes st as a one-sheet workbook: a bold header row followed by
// every row as text cells.
func WriteXLSX(w io.Writer, st State) error {
	if !st.Loaded {
		return ErrNoTable
	}

	if err := checkCellLengths(st); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}

	header := make([]interface{}, len(st.Headers))
	for i, h := range st.Headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range st.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// checkCellLengths rejects the export before anything is written.
func checkCellLengths(st State) error {
	for j, h := range st.Headers {
		if n := utf8.RuneCountInString(h); n > excelize.TotalCellChars {
			return fmt.Errorf("%w: header %d has %d characters, limit is %d",
				ErrCellTooLong, j+1, n, excelize.TotalCellChars)
		}
	}
	for i, row := range st.Rows {
		for j, v := range row {
			if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
				return fmt.Errorf("%w: row %d column %q has %d characters, limit is %d",
					ErrCellTooLong, i, st.Headers[j], n, excelize.TotalCellChars)
			}
		}
	}
	return nil
}
