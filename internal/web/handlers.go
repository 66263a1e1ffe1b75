package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// multipartOverhead is the allowance for multipart framing on top of the
// file size limit.
const multipartOverhead = 1 << 20

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// CellResponse is the JSON answer to a single-cell edit.
type CellResponse struct {
	Row      int    `json:"row"`
	Header   string `json:"header"`
	Value    string `json:"value"`
	Revision uint64 `json:"revision"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, nil)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.sessions.Len(),
		Imports:  s.limiter.Status(),
	})
}

// handleImport parses the uploaded file and replaces the session's table.
// On any failure the current table is left as it was.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	sess := sessionFrom(ctx)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		} else {
			err = fmt.Errorf("%w: %v", core.ErrNoFile, err)
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !core.IsCSVFileName(header.Filename) {
		err := fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, path.Ext(header.Filename))
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	table, err := s.importer.Import(file)
	s.limiter.Release()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("import %s: %w", header.Filename, err), statusFor(err))
		return
	}

	sess.Load(table)

	core.LogAudit(ctx, core.AuditLogParams{
		Action:   core.ActionImport,
		Rows:     len(table.Records),
		FileName: header.Filename,
	})
	s.respondState(w, r)
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	var row int
	err := sessionFrom(ctx).Do(func(e *core.Editor) error {
		var err error
		row, err = e.AddRow()
		return err
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	core.LogAudit(ctx, core.AuditLogParams{Action: core.ActionRowAdd, Row: row, HasRow: true})
	s.respondState(w, r)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	ok := s.rowAction(w, r, func(ctx context.Context, e *core.Editor, row int) error {
		if err := e.BeginEdit(row); err != nil {
			return err
		}
		core.LogAudit(ctx, core.AuditLogParams{Action: core.ActionBeginEdit, Row: row, HasRow: true})
		return nil
	})
	if ok {
		s.respondState(w, r)
	}
}

// handleSetCell applies one cell value immediately.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	header := r.FormValue("header")
	value := r.FormValue("value")

	var resp CellResponse
	ok := s.rowAction(w, r, func(ctx context.Context, e *core.Editor, row int) error {
		old, err := e.SetCell(row, header, value)
		if err != nil {
			return err
		}
		if old != value {
			core.RecordCellEdit(ctx, row, header, old, value)
		}
		resp = CellResponse{Row: row, Header: header, Value: value, Revision: e.Revision()}
		return nil
	})
	if !ok {
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSaveEdit applies the submitted header/value pairs, then leaves edit
// mode. Either every value is applied or none is.
func (s *Server) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		err = fmt.Errorf("%w: %v", core.ErrMalformedForm, err)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	headers := r.PostForm["header"]
	values := r.PostForm["value"]
	if len(headers) != len(values) {
		err := fmt.Errorf("%w: %d headers, %d values", core.ErrMalformedForm, len(headers), len(values))
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ok := s.rowAction(w, r, func(ctx context.Context, e *core.Editor, row int) error {
		current, err := e.Row(row)
		if err != nil {
			return err
		}
		for _, h := range headers {
			if _, ok := current.Get(h); !ok {
				return fmt.Errorf("%w: %q", core.ErrUnknownColumn, h)
			}
		}

		for i, h := range headers {
			old, _ := current.Get(h)
			if old == values[i] {
				continue
			}
			if _, err := e.SetCell(row, h, values[i]); err != nil {
				return err
			}
			core.RecordCellEdit(ctx, row, h, old, values[i])
		}
		e.SaveEdit()
		core.LogAudit(ctx, core.AuditLogParams{Action: core.ActionSaveEdit, Row: row, HasRow: true})
		return nil
	})
	if ok {
		s.respondState(w, r)
	}
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	ok := s.rowAction(w, r, func(ctx context.Context, e *core.Editor, row int) error {
		removed, err := e.DeleteRow(row)
		if err != nil {
			return err
		}
		core.RecordRowDelete(ctx, row, removed.Map())
		return nil
	})
	if ok {
		s.respondState(w, r)
	}
}

// rowAction runs fn for the row named in the URL under the session lock,
// after checking the optional rev form value. It writes the error response
// and returns false on failure.
func (s *Server) rowAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, e *core.Editor, row int) error) bool {
	ctx := WithRequestMetadata(r.Context(), r)

	row, err := rowParam(r)
	var (
		rev    uint64
		hasRev bool
	)
	if err == nil {
		rev, hasRev, err = formRevision(r)
	}
	if err == nil {
		err = sessionFrom(ctx).Do(func(e *core.Editor) error {
			if hasRev {
				if err := e.CheckRevision(rev); err != nil {
					return err
				}
			}
			return fn(ctx, e, row)
		})
	}
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return false
	}
	return true
}

// respondState answers a successful mutation: the new state for JSON
// clients, a redirect back to the page for browsers.
func (s *Server) respondState(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func rowParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "row")
	row, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrRowOutOfRange, raw)
	}
	return row, nil
}

// formRevision reads the optional rev form value. A rev that does not
// parse can never match, so it is reported as stale.
func formRevision(r *http.Request) (uint64, bool, error) {
	raw := r.FormValue("rev")
	if raw == "" {
		return 0, false, nil
	}
	rev, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", core.ErrStaleRevision, raw)
	}
	return rev, true, nil
}
