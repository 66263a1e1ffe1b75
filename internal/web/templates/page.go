// Package templates renders the editor page.
//
// Each function returns one templ.Component and composes its children by
// calling their Render with the same writer. Every dynamic value goes
// through templ.EscapeString.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// PageData is everything the editor page shows.
type PageData struct {
	State       core.State
	Notice      *core.UserMessage
	MaxFileSize int64
}

// Page renders the full HTML document.
func Page(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{w: w}
		o.str(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>CSV Editor</title>
<link rel="stylesheet" href="/static/app.css">
<script src="/static/app.js" defer></script>
</head>
<body>
<main>
<h1>CSV Editor</h1>
`)
		if p.Notice != nil {
			o.render(ctx, ErrorAlert(p.Notice.Message, p.Notice.Action, p.Notice.Code))
		}
		o.render(ctx, UploadForm(p.MaxFileSize))
		if p.State.Loaded {
			o.render(ctx, Table(p.State))
		} else {
			o.render(ctx, EmptyState())
		}
		o.str("</main>\n</body>\n</html>\n")
		return o.err
	})
}

// ErrorAlert renders an inline notice with the message, action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{w: w}
		o.str(`<div class="alert" role="alert"><strong>`)
		o.text(message)
		o.str(`</strong>`)
		if action != "" {
			o.str(` <span>`)
			o.text(action)
			o.str(`</span>`)
		}
		if code != "" {
			o.str(` <code>`)
			o.text(code)
			o.str(`</code>`)
		}
		o.str("</div>\n")
		return o.err
	})
}

// UploadForm posts a single CSV file to /import.
func UploadForm(maxFileSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{w: w}
		o.str(`<form class="upload" action="/import" method="post" enctype="multipart/form-data">`)
		o.str(`<input type="file" name="file" accept=".csv,text/csv" required`)
		if maxFileSize > 0 {
			o.str(` data-max-size="`)
			o.str(strconv.FormatInt(maxFileSize, 10))
			o.str(`"`)
		}
		o.str(`> <button type="submit">Upload</button></form>` + "\n")
		return o.err
	})
}

func EmptyState() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{w: w}
		o.str(`<p class="empty">Upload a CSV file to start editing.</p>` + "\n")
		return o.err
	})
}

// Table renders the row count, the grid and the table actions.
func Table(st core.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rev := strconv.FormatUint(st.Revision, 10)

		o := &out{w: w}
		o.str(`<p class="meta">`)
		o.str(strconv.Itoa(len(st.Rows)))
		if len(st.Rows) == 1 {
			o.str(" row")
		} else {
			o.str(" rows")
		}
		o.str("</p>\n")

		o.str(`<table id="grid" data-rev="`)
		o.str(rev)
		o.str(`">` + "\n<thead><tr>")
		for _, h := range st.Headers {
			o.str("<th>")
			o.text(h)
			o.str("</th>")
		}
		o.str("<th>Actions</th></tr></thead>\n<tbody>\n")
		for i, row := range st.Rows {
			if st.IsEditing(i) {
				o.render(ctx, EditRow(i, st.Headers, row, rev))
			} else {
				o.render(ctx, ViewRow(i, row, rev))
			}
		}
		o.str("</tbody>\n</table>\n")

		o.str(`<div class="actions">`)
		o.render(ctx, ButtonForm("/rows", "", "Add Row", ""))
		o.str(`<a class="button" href="/export/csv" download>Download CSV</a>`)
		o.str(`<a class="button secondary" href="/export/xlsx" download>Download XLSX</a>`)
		o.str("</div>\n")
		return o.err
	})
}

// ViewRow renders row i as text with Edit and Delete buttons.
func ViewRow(i int, row []string, rev string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		idx := strconv.Itoa(i)

		o := &out{w: w}
		o.str(`<tr data-row="` + idx + `">`)
		for _, v := range row {
			o.str("<td>")
			o.text(v)
			o.str("</td>")
		}
		o.str(`<td class="row-actions">`)
		o.render(ctx, ButtonForm("/rows/"+idx+"/edit", rev, "Edit", ""))
		o.render(ctx, ButtonForm("/rows/"+idx+"/delete", rev, "Delete", "danger"))
		o.str("</td></tr>\n")
		return o.err
	})
}

// EditRow renders inputs bound to the row's save form. Header and value
// fields are emitted in column order so the handler can pair them up.
func EditRow(i int, headers, row []string, rev string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		idx := strconv.Itoa(i)
		formID := "row-" + idx

		o := &out{w: w}
		o.str(`<tr class="editing" data-row="` + idx + `">`)
		for j, h := range headers {
			eh := templ.EscapeString(h)
			o.str("<td>")
			o.str(`<input type="hidden" form="` + formID + `" name="header" value="` + eh + `">`)
			o.str(`<input type="text" form="` + formID + `" name="value" data-header="` + eh + `" aria-label="` + eh + `" value="`)
			o.text(row[j])
			o.str(`">`)
			o.str("</td>")
		}
		o.str(`<td class="row-actions">`)
		o.str(`<form id="` + formID + `" method="post" action="/rows/` + idx + `/save">`)
		o.str(`<input type="hidden" name="rev" value="` + rev + `">`)
		o.str(`<button type="submit" class="primary">Save</button></form>`)
		o.render(ctx, ButtonForm("/rows/"+idx+"/delete", rev, "Delete", "danger"))
		o.str("</td></tr>\n")
		return o.err
	})
}

// ButtonForm is a one-button POST form. An empty rev omits the hidden field.
func ButtonForm(action, rev, label, class string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{w: w}
		o.str(`<form method="post" action="`)
		o.text(action)
		o.str(`">`)
		if rev != "" {
			o.str(`<input type="hidden" name="rev" value="`)
			o.text(rev)
			o.str(`">`)
		}
		o.str(`<button type="submit"`)
		if class != "" {
			o.str(` class="`)
			o.text(class)
			o.str(`"`)
		}
		o.str(`>`)
		o.text(label)
		o.str(`</button></form>`)
		return o.err
	})
}

// out writes to w and keeps the first error; later writes are no-ops.
type out struct {
	w   io.Writer
	err error
}

func (o *out) str(s string) {
	if o.err == nil {
		_, o.err = io.WriteString(o.w, s)
	}
}

func (o *out) text(s string) {
	o.str(templ.EscapeString(s))
}

func (o *out) render(ctx context.Context, c templ.Component) {
	if o.err == nil {
		o.err = c.Render(ctx, o.w)
	}
}
