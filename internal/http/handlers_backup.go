package http

import (
	"errors"
	"io"
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.ledger.Export(r.Context())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="fintrack-backup-`+s.now().UTC().Format("2006-01-02")+`.json"`).
		Raw(data).
		Write(w)
}

// handleImport replaces the whole ledger with the posted backup. A
// rejected document leaves the ledger untouched and answers 400.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "too_large", "backup too large").Write(w)
			return
		}
		badRequest(w, err)
		return
	}

	if err := s.ledger.Import(r.Context(), data); err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}
