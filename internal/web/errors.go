package web

// errors.go provides unified error responses for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusFor(err))
//  3. Error is mapped via core.MapError to get a user-facing message
//  4. Technical error is logged with request and session IDs
//  5. JSON clients get an ErrorResponse; browsers get the page again with
//     an inline notice and the current table

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by a handler.
func statusFor(err error) int {
	var parseErr *core.ParseError
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrMalformedForm):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, core.ErrStaleRevision),
		errors.Is(err, core.ErrNoTable):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCellTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= 500 || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	s.renderPage(w, r, statusCode, &userMsg)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderPage writes the editor page for the current session. Requests
// outside a session (rate limited before the session middleware) get the
// empty page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, statusCode int, notice *core.UserMessage) {
	st := core.State{Editing: core.NoEdit}
	if sess := sessionFrom(r.Context()); sess != nil {
		st = sess.Snapshot()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	err := templates.Page(templates.PageData{
		State:       st,
		Notice:      notice,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}
