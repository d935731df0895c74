package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/ledger/internal/core"
	"github.com/JonMunkholm/ledger/internal/logging"
)

// saveAs sends payload as a file download named filename. Write failures
// are logged; the client connection is the only thing that can fail here.
func saveAs(w http.ResponseWriter, r *http.Request, payload []byte, filename, contentType string) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment"
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", disposition)
	h.Set("Content-Length", strconv.Itoa(len(payload)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(payload); err != nil {
		logging.FromContext(r.Context()).Warn("download write failed",
			"file", filename,
			"error", err,
		)
	}
}

// sendFile emits a rendered export.
func sendFile(w http.ResponseWriter, r *http.Request, f *core.ExportFile) {
	saveAs(w, r, f.Payload, f.FileName, f.ContentType)
}
