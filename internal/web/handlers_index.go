package web

import (
	"net/http"

	"github.com/JonMunkholm/ledger/internal/core"
	"github.com/JonMunkholm/ledger/internal/logging"
	"github.com/JonMunkholm/ledger/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	columns := make([]templates.Column, len(core.DefaultFieldOrder))
	for i, f := range core.DefaultFieldOrder {
		columns[i] = templates.Column{Field: f, Label: core.LabelFor(f)}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.Index(templates.IndexProps{
		Title:       "Ledger import / export",
		Columns:     columns,
		MaxFileSize: s.cfg.Import.MaxFileSize.String(),
		SheetName:   s.cfg.Export.SheetName,
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render index failed", "error", err)
	}
}
