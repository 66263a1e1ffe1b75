package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// handleExportCSV downloads the session's table as edited_data.csv.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", core.ExportFileName, "text/csv; charset=utf-8", core.WriteCSV)
}

// handleExportXLSX downloads the session's table as a workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", core.ExportXLSXFileName,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", core.WriteXLSX)
}

// export renders the snapshot into memory before any header is written.
func (s *Server) export(w http.ResponseWriter, r *http.Request, format, filename, contentType string, write func(io.Writer, core.State) error) {
	ctx := WithRequestMetadata(r.Context(), r)
	st := sessionFrom(ctx).Snapshot()

	var buf bytes.Buffer
	if err := write(&buf, st); err != nil {
		s.respondError(w, r, fmt.Errorf("export %s: %w", format, err), statusFor(err))
		return
	}

	core.LogAudit(ctx, core.AuditLogParams{
		Action:   core.ActionExport,
		Rows:     len(st.Rows),
		FileName: filename,
		Format:   format,
	})

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
