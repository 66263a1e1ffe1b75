package core

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportFileName is the download name for CSV exports.
const ExportFileName = "edited_data.csv"

// WriteCSV writes the header row and every row of st to w.
// Quoting follows encoding/csv, the same reader the importer uses, so the
// output imports back to an equal table.
func WriteCSV(w io.Writer, st State) error {
	if !st.Loaded {
		return ErrNoTable
	}

	cw := csv.NewWriter(w)
	if err := writeCSVRecord(w, cw, st.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range st.Rows {
		if err := writeCSVRecord(w, cw, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeCSVRecord writes one record. csv.Writer renders a lone empty field as
// a blank line, which csv.Reader skips, so that case is written quoted.
func writeCSVRecord(w io.Writer, cw *csv.Writer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\"\"\n")
		return err
	}
	return cw.Write(record)
}
