package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	tpls, err := s.ledger.ListRecurring(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if tpls == nil {
		tpls = []core.RecurringTemplate{}
	}
	NewJSONResponse().Payload(tpls).Write(w)
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.rejectBody(w, r, log.OpCreate, err)
		return
	}
	tpl, err := req.toTemplate()
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	saved, err := s.ledger.AddRecurring(r.Context(), tpl)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(saved).Write(w)
}

// handleCatchUp materializes every due occurrence and returns what was
// generated. Repeating the call immediately generates nothing.
func (s *Server) handleCatchUp(w http.ResponseWriter, r *http.Request) {
	generated, err := s.ledger.CatchUp(r.Context())
	if err != nil {
		s.fail(w, r, log.OpCatchUp, err)
		return
	}
	if len(generated) > 0 {
		s.invalidate()
	}
	if generated == nil {
		generated = []core.Transaction{}
	}
	NewJSONResponse().Payload(map[string]any{
		"generated":    len(generated),
		"transactions": generated,
	}).Write(w)
}
