package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/ledger/internal/core"
)

// handleExport downloads a ledger's transactions.
//
// Query parameters:
//   - format: csv (default) or xlsx
//   - from, to: inclusive date bounds, YYYY-MM-DD
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := s.ledgerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format, err := core.ParseExportFormat(q.Get("format"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	from, ok := dateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := dateParam(w, r, "to")
	if !ok {
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		respondBadRequest(w, r, "from must not be after to")
		return
	}

	file, err := s.service.Export(r.Context(), core.ExportRequest{
		LedgerID: ledgerID,
		Format:   format,
		From:     from,
		To:       to,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	sendFile(w, r, file)
}

// handleTemplate downloads an empty import file with localized headers.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	file, err := s.service.Template(format)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	sendFile(w, r, file)
}

func dateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(core.DateLayout, v)
	if err != nil {
		respondBadRequest(w, r, "invalid "+name+" date, want YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
