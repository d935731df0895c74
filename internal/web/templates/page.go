// Package templates renders the HTML pages of the ledger service.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Column is one importable column shown on the index page.
type Column struct {
	Field string
	Label string
}

// IndexProps is the data of the index page.
type IndexProps struct {
	Title       string
	Columns     []Column
	MaxFileSize string
	SheetName   string
}

// Index renders the landing page: the import columns, the upload limit and
// links to the template downloads.
func Index(p IndexProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"ko\"><head><meta charset=\"utf-8\"><title>")
		b.WriteString(templ.EscapeString(p.Title))
		b.WriteString("</title></head><body><main><h1>")
		b.WriteString(templ.EscapeString(p.Title))
		b.WriteString("</h1><p>Upload .xlsx or .csv files up to ")
		b.WriteString(templ.EscapeString(p.MaxFileSize))
		b.WriteString(". Spreadsheets are read from their first sheet; exports use the sheet name ")
		b.WriteString(templ.EscapeString(p.SheetName))
		b.WriteString(".</p><table><thead><tr><th>Column</th><th>Field</th></tr></thead><tbody>")
		for _, c := range p.Columns {
			b.WriteString("<tr><td>")
			b.WriteString(templ.EscapeString(c.Label))
			b.WriteString("</td><td><code>")
			b.WriteString(templ.EscapeString(c.Field))
			b.WriteString("</code></td></tr>")
		}
		b.WriteString("</tbody></table><p>Templates: ")
		b.WriteString("<a href=\"/api/template?format=xlsx\">xlsx</a> ")
		b.WriteString("<a href=\"/api/template?format=csv\">csv</a></p></main></body></html>")

		_, err := io.WriteString(w, b.String())
		return err
	})
}
