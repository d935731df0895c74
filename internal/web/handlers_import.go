package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/ledger/internal/core"
	"github.com/JonMunkholm/ledger/internal/web/middleware"
)

// multipartMemory is how much of a multipart form is kept in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// handleImport stores every row of the uploaded file in the ledger, or
// none of them.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := s.ledgerID(w, r)
	if !ok {
		return
	}

	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := s.service.Import(r.Context(), core.ImportRequest{
		LedgerID:   ledgerID,
		FileName:   header.Filename,
		Size:       header.Size,
		Reader:     file,
		ImportedBy: middleware.Member(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, result)
		return
	}

	writeJSON(w, r, http.StatusCreated, result)
}

// handlePreview parses and validates the uploaded file without storing it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ledgerID(w, r); !ok {
		return
	}

	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := s.service.Preview(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) ledgerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "ledgerID"))
	if err != nil || id == uuid.Nil {
		respondBadRequest(w, r, "invalid ledger id")
		return uuid.Nil, false
	}
	return id, true
}

// formFile reads the "file" part of a multipart upload. The body is capped
// at the configured file size plus room for the multipart framing.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if limit := int64(s.cfg.Import.MaxFileSize); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, r, err, nil)
			return nil, nil, false
		}
		respondBadRequest(w, r, "invalid multipart form")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, r, "no file provided")
		return nil, nil, false
	}
	return file, header, true
}
